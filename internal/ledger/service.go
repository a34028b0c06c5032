// Package ledger holds the card workflows a user drives: it validates input,
// derives profit, and calls the record store one row at a time.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/giftledger/giftledger/internal/models"
	"github.com/giftledger/giftledger/internal/store"
	"github.com/giftledger/giftledger/internal/util"
	log "github.com/sirupsen/logrus"
)

// CardStore is the subset of the record store the ledger needs.
type CardStore interface {
	Add(ctx context.Context, card models.GiftCard) error
	List(ctx context.Context, filter store.Filter) ([]models.GiftCard, error)
	Get(ctx context.Context, cardNumber string) (*models.GiftCard, error)
	Update(ctx context.Context, cardNumber string, card models.GiftCard) error
	Delete(ctx context.Context, cardNumber string) error
	Exists(ctx context.Context, cardNumber string) (bool, error)
	Summary(ctx context.Context) (store.Summary, error)
}

// ImageSaver copies an uploaded image into the attachment directory.
type ImageSaver interface {
	Save(cardNumber string, src io.Reader, filename string) (string, error)
}

// Service runs card workflows against a CardStore.
type Service struct {
	store  CardStore
	images ImageSaver
	now    func() time.Time
}

// NewService wires a ledger. images may be nil when attachments are disabled.
func NewService(cards CardStore, images ImageSaver) *Service {
	return &Service{store: cards, images: images, now: time.Now}
}

// BatchError reports the row that stopped a bulk operation. Rows before it
// are already committed.
type BatchError struct {
	Op         string // "update" or "delete".
	CardNumber string
	Done       int
	Err        error
}

func (e *BatchError) Error() string {
	_, msg := store.Outcome(e.Err, "")
	return fmt.Sprintf("Failed to %s card %s: %s", e.Op, e.CardNumber, msg)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Create validates in and stores a new card.
func (s *Service) Create(ctx context.Context, in CardInput) (*models.GiftCard, error) {
	card, errBuild := buildCard(in, nil, s.now())
	if errBuild != nil {
		return nil, errBuild
	}
	exists, errExists := s.store.Exists(ctx, card.CardNumber)
	if errExists != nil {
		return nil, errExists
	}
	if exists {
		return nil, store.ErrDuplicateKey
	}
	if errAdd := s.store.Add(ctx, card); errAdd != nil {
		return nil, errAdd
	}
	log.Infof("ledger: card %s added", util.HideCardNumber(card.CardNumber))
	return &card, nil
}

// Edit replaces the mutable fields of an existing card.
func (s *Service) Edit(ctx context.Context, cardNumber string, in CardInput) (*models.GiftCard, error) {
	current, errGet := s.store.Get(ctx, cardNumber)
	if errGet != nil {
		return nil, errGet
	}
	if current == nil {
		return nil, store.ErrNotFound
	}
	in.CardNumber = current.CardNumber
	card, errBuild := buildCard(in, current, s.now())
	if errBuild != nil {
		return nil, errBuild
	}
	if errUpdate := s.store.Update(ctx, current.CardNumber, card); errUpdate != nil {
		return nil, errUpdate
	}
	card.CreatedAt = current.CreatedAt
	return &card, nil
}

// Remove deletes a card. Removing a missing card succeeds.
func (s *Service) Remove(ctx context.Context, cardNumber string) error {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return invalid("Card number is required.")
	}
	return s.store.Delete(ctx, cardNumber)
}

// Card returns one card, or nil when absent.
func (s *Service) Card(ctx context.Context, cardNumber string) (*models.GiftCard, error) {
	return s.store.Get(ctx, strings.TrimSpace(cardNumber))
}

// Cards lists cards, newest first.
func (s *Service) Cards(ctx context.Context, filter store.Filter) ([]models.GiftCard, error) {
	if filter.Pending != "" && filter.Pending != models.PendingYes && filter.Pending != models.PendingNo {
		return nil, invalid(`Pending must be "Yes" or "No".`)
	}
	return s.store.List(ctx, filter)
}

// Summary totals the ledger.
func (s *Service) Summary(ctx context.Context) (store.Summary, error) {
	return s.store.Summary(ctx)
}

// BulkSave edits each row in order, one transaction per row. Rows without a
// card number are skipped. It stops at the first failure and returns how many
// rows were saved before it.
func (s *Service) BulkSave(ctx context.Context, rows []CardInput) (int, error) {
	saved := 0
	for _, row := range rows {
		number := strings.TrimSpace(row.CardNumber)
		if number == "" {
			continue
		}
		if _, errEdit := s.Edit(ctx, number, row); errEdit != nil {
			return saved, &BatchError{Op: "update", CardNumber: number, Done: saved, Err: errEdit}
		}
		saved++
	}
	log.Infof("ledger: bulk saved %d card(s)", saved)
	return saved, nil
}

// BulkDelete deletes each card in order with the same per-row discipline as
// BulkSave.
func (s *Service) BulkDelete(ctx context.Context, cardNumbers []string) (int, error) {
	deleted := 0
	for _, number := range cardNumbers {
		number = strings.TrimSpace(number)
		if number == "" {
			continue
		}
		if errDelete := s.store.Delete(ctx, number); errDelete != nil {
			return deleted, &BatchError{Op: "delete", CardNumber: number, Done: deleted, Err: errDelete}
		}
		deleted++
	}
	log.Infof("ledger: bulk deleted %d card(s)", deleted)
	return deleted, nil
}

// ErrAttachmentsDisabled is returned when no image directory is configured.
var ErrAttachmentsDisabled = errors.New("ledger: attachments disabled")

// AttachImage stores an image for an existing card and records its path.
// A previous attachment file is left in place.
func (s *Service) AttachImage(ctx context.Context, cardNumber string, src io.Reader, filename string) (string, error) {
	if s.images == nil {
		return "", ErrAttachmentsDisabled
	}
	current, errGet := s.store.Get(ctx, strings.TrimSpace(cardNumber))
	if errGet != nil {
		return "", errGet
	}
	if current == nil {
		return "", store.ErrNotFound
	}
	path, errSave := s.images.Save(current.CardNumber, src, filename)
	if errSave != nil {
		return "", errSave
	}
	next := *current
	next.CardImagePath = &path
	if errUpdate := s.store.Update(ctx, current.CardNumber, next); errUpdate != nil {
		return "", errUpdate
	}
	log.Infof("ledger: attached image %s to card %s", path, util.HideCardNumber(current.CardNumber))
	return path, nil
}

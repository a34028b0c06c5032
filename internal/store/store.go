// Package store persists gift card records.
//
// Every operation runs in its own transaction bounded by the configured
// timeout. Nothing is cached between calls and no transaction spans calls, so
// a sequence of writes is atomic per row only.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/giftledger/giftledger/internal/db"
	"github.com/giftledger/giftledger/internal/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options tunes a Store.
type Options struct {
	// OpTimeout bounds a single operation, including lock waits.
	OpTimeout time.Duration
	// Now overrides the clock used for created_at.
	Now func() time.Time
}

// Store is the record store for gift cards.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

// New wraps an open, migrated connection.
func New(conn *gorm.DB, opts Options) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("store: nil db")
	}
	timeout := opts.OpTimeout
	if timeout <= 0 {
		timeout = dbutil.DefaultLockTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: conn, timeout: timeout, now: now}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return dbutil.Close(s.db)
}

// Ping checks that storage answers within the operation timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sqlDB, errDB := s.db.DB()
	if errDB != nil {
		return classify("ping", errDB)
	}
	return classify("ping", sqlDB.PingContext(ctx))
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Brand   string // Case-insensitive substring of the brand.
	Pending string // models.PendingYes or models.PendingNo.
	Query   string // Case-insensitive substring of card number or holder.
}

// Summary aggregates the ledger.
type Summary struct {
	Total            int64           `json:"total"`
	Held             int64           `json:"held"`
	Sold             int64           `json:"sold"`
	Invested         decimal.Decimal `json:"invested"`
	ExpectedProfit   decimal.Decimal `json:"expected_profit"`
	PaymentsReceived decimal.Decimal `json:"payments_received"`
	RealizedProfit   decimal.Decimal `json:"realized_profit"`
}

// run executes fn in a transaction scoped to this call. The transaction is
// committed when fn returns nil and rolled back otherwise, including on panic.
func (s *Store) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: KindStorage, Message: op + " failed", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return classify(op, s.db.WithContext(ctx).Transaction(fn))
}

// Add inserts card. It fails with KindDuplicateKey when the card number is
// taken. Profit is derived from the prices before the row is written.
func (s *Store) Add(ctx context.Context, card models.GiftCard) error {
	if strings.TrimSpace(card.CardNumber) == "" {
		return validationError("card number is required")
	}
	row := card
	row.ID = 0
	row.Profit = row.ExpectedPrice.Sub(row.PurchasePrice)
	row.Balance = row.Denomination
	createdAt := s.now().UTC()
	row.CreatedAt = &createdAt

	// The insert is the first statement so a busy SQLite writer is waited
	// out; a read first would fail the lock upgrade at once. The unique
	// index reports a taken number.
	errRun := s.run(ctx, "add card", func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if errRun != nil {
		log.WithError(errRun).Warnf("store: add card %s", row.CardNumber)
		return errRun
	}
	log.Debugf("store: added card %s", row.CardNumber)
	return nil
}

// List returns cards matching filter, most recently created first.
func (s *Store) List(ctx context.Context, filter Filter) ([]models.GiftCard, error) {
	var rows []models.GiftCard
	errRun := s.run(ctx, "list cards", func(tx *gorm.DB) error {
		q := tx.Model(&models.GiftCard{})
		if brand := strings.TrimSpace(filter.Brand); brand != "" {
			q = q.Where(dbutil.CaseInsensitiveLikeExpr(tx, "brand"), dbutil.ContainsPattern(tx, brand))
		}
		if pending := strings.TrimSpace(filter.Pending); pending != "" {
			q = q.Where("pending = ?", pending)
		}
		if query := strings.TrimSpace(filter.Query); query != "" {
			pattern := dbutil.ContainsPattern(tx, query)
			q = q.Where(
				tx.Where(dbutil.CaseInsensitiveLikeExpr(tx, "card_number"), pattern).
					Or(dbutil.CaseInsensitiveLikeExpr(tx, "card_holder"), pattern),
			)
		}
		return q.Order("created_at IS NULL").Order("created_at DESC").Order("id DESC").Find(&rows).Error
	})
	if errRun != nil {
		log.WithError(errRun).Warn("store: list cards")
		return nil, errRun
	}
	if rows == nil {
		rows = []models.GiftCard{}
	}
	return rows, nil
}

// Get returns the card with the given number, or nil when there is none.
func (s *Store) Get(ctx context.Context, cardNumber string) (*models.GiftCard, error) {
	var (
		card  models.GiftCard
		found bool
	)
	errRun := s.run(ctx, "get card", func(tx *gorm.DB) error {
		res := tx.Where("card_number = ?", cardNumber).Limit(1).Find(&card)
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if errRun != nil {
		log.WithError(errRun).Warnf("store: get card %s", cardNumber)
		return nil, errRun
	}
	if !found {
		return nil, nil
	}
	return &card, nil
}

// Update replaces every mutable field of the card with the given number.
// The card number and creation time are never changed. It fails with
// KindNotFound when no card matched; rewriting identical values succeeds.
func (s *Store) Update(ctx context.Context, cardNumber string, card models.GiftCard) error {
	updates := mutableColumns(card)
	errRun := s.run(ctx, "update card", func(tx *gorm.DB) error {
		res := tx.Model(&models.GiftCard{}).
			Where("card_number = ?", cardNumber).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errRun != nil {
		log.WithError(errRun).Warnf("store: update card %s", cardNumber)
		return errRun
	}
	log.Debugf("store: updated card %s", cardNumber)
	return nil
}

// Delete removes the card with the given number. Deleting a missing card
// succeeds. Attachments referenced by the card are left on disk.
func (s *Store) Delete(ctx context.Context, cardNumber string) error {
	errRun := s.run(ctx, "delete card", func(tx *gorm.DB) error {
		return tx.Where("card_number = ?", cardNumber).Delete(&models.GiftCard{}).Error
	})
	if errRun != nil {
		log.WithError(errRun).Warnf("store: delete card %s", cardNumber)
		return errRun
	}
	log.Debugf("store: deleted card %s", cardNumber)
	return nil
}

// Exists reports whether a card with the given number is stored.
func (s *Store) Exists(ctx context.Context, cardNumber string) (bool, error) {
	var exists bool
	errRun := s.run(ctx, "check card", func(tx *gorm.DB) error {
		var errExists error
		exists, errExists = existsTx(tx, cardNumber)
		return errExists
	})
	if errRun != nil {
		return false, errRun
	}
	return exists, nil
}

// Summary totals the ledger.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	errRun := s.run(ctx, "summarize cards", func(tx *gorm.DB) error {
		return tx.Model(&models.GiftCard{}).
			Select(`COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN pending = ? THEN 1 ELSE 0 END), 0) AS held,
				COALESCE(SUM(CASE WHEN pending = ? THEN 1 ELSE 0 END), 0) AS sold,
				COALESCE(SUM(purchase_price), 0) AS invested,
				COALESCE(SUM(CASE WHEN pending = ? THEN profit ELSE 0 END), 0) AS expected_profit,
				COALESCE(SUM(CASE WHEN pending = ? THEN COALESCE(payment_received, 0) ELSE 0 END), 0) AS payments_received,
				COALESCE(SUM(CASE WHEN pending = ? THEN COALESCE(payment_received, 0) - purchase_price ELSE 0 END), 0) AS realized_profit`,
				models.PendingYes, models.PendingNo, models.PendingYes, models.PendingNo, models.PendingNo).
			Scan(&out).Error
	})
	if errRun != nil {
		log.WithError(errRun).Warn("store: summarize cards")
		return Summary{}, errRun
	}
	return out, nil
}

func existsTx(tx *gorm.DB, cardNumber string) (bool, error) {
	var count int64
	if errCount := tx.Model(&models.GiftCard{}).
		Where("card_number = ?", cardNumber).
		Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// mutableColumns maps every column an update may rewrite.
func mutableColumns(card models.GiftCard) map[string]any {
	return map[string]any{
		"card_holder":      card.CardHolder,
		"brand":            card.Brand,
		"pin":              nullableString(card.PIN),
		"denomination":     card.Denomination,
		"purchase_price":   card.PurchasePrice,
		"expected_price":   card.ExpectedPrice,
		"profit":           card.ExpectedPrice.Sub(card.PurchasePrice),
		"source":           card.Source,
		"card_image_path":  nullableString(card.CardImagePath),
		"purchase_date":    card.PurchaseDate,
		"pending":          card.Pending,
		"sold_date":        nullableString(card.SoldDate),
		"payment_received": card.PaymentReceived,
		"payment_mode":     nullableString(card.PaymentMode),
	}
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

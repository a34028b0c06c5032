// Package export writes the ledger as a comma separated text file.
//
// Commas inside text values are replaced with semicolons instead of quoting,
// so fields that legitimately contain commas do not round-trip.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/giftledger/giftledger/internal/models"
	"github.com/giftledger/giftledger/internal/util"
	"github.com/shopspring/decimal"
)

// Header is the first line of every export.
const Header = "Card Number,Card Holder,Brand,PIN,Denomination,Purchase Price,Expected Price,Profit,Source,Purchase Date,Pending,Sold Date,Payment Received,Payment Mode,Image Path"

// ErrNoCards is returned when there is nothing to export.
var ErrNoCards = errors.New("No cards found to export.")

// Options tunes an export.
type Options struct {
	MaskPIN bool // Replace each PIN character with '*'.
}

// FileName returns the default export file name for t.
func FileName(t time.Time) string {
	return "gift_cards_export_" + t.Format("20060102_150405") + ".csv"
}

// WriteCSV writes cards to w, one line per card after the header.
func WriteCSV(w io.Writer, cards []models.GiftCard, opts Options) error {
	if len(cards) == 0 {
		return ErrNoCards
	}
	bw := bufio.NewWriter(w)
	if _, errWrite := bw.WriteString(Header + "\n"); errWrite != nil {
		return fmt.Errorf("export: write header: %w", errWrite)
	}
	for i := range cards {
		if _, errWrite := bw.WriteString(strings.Join(row(&cards[i], opts), ",") + "\n"); errWrite != nil {
			return fmt.Errorf("export: write card %s: %w", cards[i].CardNumber, errWrite)
		}
	}
	if errFlush := bw.Flush(); errFlush != nil {
		return fmt.Errorf("export: flush: %w", errFlush)
	}
	return nil
}

func row(card *models.GiftCard, opts Options) []string {
	pin := models.StringValue(card.PIN)
	if opts.MaskPIN {
		pin = util.MaskPIN(pin)
	}
	pending := card.Pending
	if pending == "" {
		pending = models.PendingNo
	}
	payment := decimal.Zero
	if card.PaymentReceived.Valid {
		payment = card.PaymentReceived.Decimal
	}
	return []string{
		text(card.CardNumber),
		text(card.CardHolder),
		text(card.Brand),
		text(pin),
		money(card.Denomination),
		money(card.PurchasePrice),
		money(card.ExpectedPrice),
		money(card.Profit),
		text(card.Source),
		text(card.PurchaseDate),
		text(pending),
		text(models.StringValue(card.SoldDate)),
		money(payment),
		text(models.StringValue(card.PaymentMode)),
		text(card.ImagePath()),
	}
}

var textReplacer = strings.NewReplacer(",", ";", "\r\n", " ", "\n", " ", "\r", " ")

func text(value string) string {
	return textReplacer.Replace(value)
}

func money(value decimal.Decimal) string {
	return "$" + value.StringFixed(2)
}

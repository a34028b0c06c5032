package ledger

import (
	"strings"
	"time"

	"github.com/giftledger/giftledger/internal/models"
	"github.com/giftledger/giftledger/internal/store"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CardInput carries the field values a user submits for a card.
//
// PIN and CardImagePath are pointers: nil keeps the stored value on edit,
// an empty string clears it.
type CardInput struct {
	CardNumber      string           `json:"card_number"`
	CardHolder      string           `json:"card_holder"`
	Brand           string           `json:"brand"`
	PIN             *string          `json:"pin"`
	Denomination    decimal.Decimal  `json:"denomination"`
	PurchasePrice   decimal.Decimal  `json:"purchase_price"`
	ExpectedPrice   decimal.Decimal  `json:"expected_price"`
	ExpectedPercent *decimal.Decimal `json:"expected_percent"` // Expected price as a percent of the purchase price.
	Source          string           `json:"source"`
	CardImagePath   *string          `json:"card_image_path"`
	PurchaseDate    string           `json:"purchase_date"`
	Pending         string           `json:"pending"`
	SoldDate        string           `json:"sold_date"`
	PaymentReceived decimal.Decimal  `json:"payment_received"`
	PaymentMode     string           `json:"payment_mode"`
}

func invalid(message string) error {
	return &store.Error{Kind: store.KindValidation, Message: message}
}

// buildCard validates in and produces the record to persist. current is the
// stored card when editing and nil when creating.
//
// A blank brand, source, purchase date or pending status takes the stored
// value on edit. When there is none it takes the default a new card gets:
// "Unknown" for brand and source, today for the purchase date and "Yes" for
// pending. Only a new card must name its brand.
func buildCard(in CardInput, current *models.GiftCard, today time.Time) (models.GiftCard, error) {
	creating := current == nil
	var stored models.GiftCard
	if !creating {
		stored = *current
	}
	number := strings.TrimSpace(in.CardNumber)
	brand := strings.TrimSpace(in.Brand)
	if number == "" || (creating && brand == "") {
		return models.GiftCard{}, invalid("Card Number and Brand are required!")
	}
	brand = fallback(brand, stored.Brand, models.DefaultBrand)

	purchase := in.PurchasePrice.Round(2)
	expected := in.ExpectedPrice
	if in.ExpectedPercent != nil {
		if !in.ExpectedPercent.IsPositive() || in.ExpectedPercent.GreaterThan(hundred) {
			return models.GiftCard{}, invalid("Expected percent must be greater than 0 and at most 100.")
		}
		expected = purchase.Mul(*in.ExpectedPercent).Div(hundred)
	}
	expected = expected.Round(2)
	denomination := in.Denomination.Round(2)

	if creating {
		if !denomination.IsPositive() || !purchase.IsPositive() || !expected.IsPositive() {
			return models.GiftCard{}, invalid("Denomination, Purchase Price, and Expected Price must be greater than 0.")
		}
	} else if denomination.IsNegative() || purchase.IsNegative() || expected.IsNegative() {
		return models.GiftCard{}, invalid("Prices cannot be negative.")
	}

	pending := fallback(strings.TrimSpace(in.Pending), stored.Pending, models.PendingYes)
	if pending != models.PendingYes && pending != models.PendingNo {
		return models.GiftCard{}, invalid(`Pending must be "Yes" or "No".`)
	}

	purchaseDate := fallback(strings.TrimSpace(in.PurchaseDate), stored.PurchaseDate, today.Format(models.DateLayout))
	if !validDate(purchaseDate) {
		return models.GiftCard{}, invalid("Purchase date must be YYYY-MM-DD.")
	}

	source := fallback(strings.TrimSpace(in.Source), stored.Source, models.DefaultSource)

	card := models.GiftCard{
		CardNumber:    number,
		CardHolder:    strings.TrimSpace(in.CardHolder),
		Brand:         brand,
		Denomination:  denomination,
		PurchasePrice: purchase,
		ExpectedPrice: expected,
		Profit:        expected.Sub(purchase),
		Source:        source,
		PurchaseDate:  purchaseDate,
		Pending:       pending,
		PaymentReceived: decimal.NullDecimal{
			Decimal: decimal.Zero,
			Valid:   true,
		},
	}

	switch {
	case in.PIN != nil:
		card.PIN = models.OptionalString(strings.TrimSpace(*in.PIN))
	case current != nil:
		card.PIN = current.PIN
	}
	switch {
	case in.CardImagePath != nil:
		card.CardImagePath = models.OptionalString(strings.TrimSpace(*in.CardImagePath))
	case current != nil:
		card.CardImagePath = current.CardImagePath
	}

	// Sale details only mean something once the card is sold.
	if pending == models.PendingNo {
		soldDate := strings.TrimSpace(in.SoldDate)
		if soldDate == "" {
			soldDate = today.Format(models.DateLayout)
		}
		if !validDate(soldDate) {
			return models.GiftCard{}, invalid("Sold date must be YYYY-MM-DD.")
		}
		if in.PaymentReceived.IsNegative() {
			return models.GiftCard{}, invalid("Payment received cannot be negative.")
		}
		card.SoldDate = &soldDate
		card.PaymentReceived = decimal.NewNullDecimal(in.PaymentReceived.Round(2))
		card.PaymentMode = models.OptionalString(strings.TrimSpace(in.PaymentMode))
	}
	return card, nil
}

// fallback returns the first non-blank of value, stored and def.
func fallback(value, stored, def string) string {
	if value != "" {
		return value
	}
	if strings.TrimSpace(stored) != "" {
		return stored
	}
	return def
}

func validDate(value string) bool {
	_, errParse := time.Parse(models.DateLayout, value)
	return errParse == nil
}

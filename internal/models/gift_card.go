package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardsTable is the table that holds gift card records.
const CardsTable = "cards"

// Pending status values.
const (
	// PendingYes marks a card that is still held.
	PendingYes = "Yes"
	// PendingNo marks a card that has been sold or redeemed.
	PendingNo = "No"
)

// DefaultBrand and DefaultSource fill records that predate those columns
// and blank inputs that have no stored value.
const (
	DefaultBrand  = "Unknown"
	DefaultSource = "Unknown"
)

// DateLayout is the ISO 8601 calendar date layout used by date columns.
const DateLayout = "2006-01-02"

// GiftCard represents one gift card held for resale.
//
// Columns added after the base schema are nullable so older databases can
// be migrated in place; optional text columns are pointers for that reason.
type GiftCard struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"-"` // Primary key.

	CardNumber string `gorm:"type:text;not null;uniqueIndex:idx_cards_card_number" json:"card_number"` // Unique card identifier.
	CardHolder string `gorm:"type:text;not null" json:"card_holder"`                                   // Holder name.

	Brand string  `gorm:"type:text" json:"brand"` // Issuer or merchant.
	PIN   *string `gorm:"column:pin;type:text" json:"pin,omitempty"`

	Denomination  decimal.Decimal `gorm:"type:decimal(20,2)" json:"denomination"`   // Face value.
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,2)" json:"purchase_price"` // Cost paid.
	ExpectedPrice decimal.Decimal `gorm:"type:decimal(20,2)" json:"expected_price"` // Anticipated resale price.
	Profit        decimal.Decimal `gorm:"type:decimal(20,2)" json:"profit"`         // ExpectedPrice - PurchasePrice.

	Source        string  `gorm:"type:text" json:"source"`                    // Acquisition channel.
	CardImagePath *string `gorm:"type:text" json:"card_image_path,omitempty"` // Attachment path, nil or empty for none.
	PurchaseDate  string  `gorm:"type:text" json:"purchase_date"`             // YYYY-MM-DD.

	CreatedAt *time.Time `gorm:"index:idx_cards_created_at" json:"created_at,omitempty"` // Insertion time, never updated.

	Pending         string              `gorm:"type:text" json:"pending"`                   // PendingYes or PendingNo.
	SoldDate        *string             `gorm:"type:text" json:"sold_date,omitempty"`       // YYYY-MM-DD, sold cards only.
	PaymentReceived decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"payment_received"` // Sold cards only.
	PaymentMode     *string             `gorm:"type:text" json:"payment_mode,omitempty"`    // Sold cards only.

	Balance decimal.Decimal `gorm:"type:real;not null" json:"-"` // Legacy base column, mirrors the denomination at insert.
}

// TableName pins the table name used by every schema version.
func (GiftCard) TableName() string {
	return CardsTable
}

// IsPending reports whether the card is still held.
func (c *GiftCard) IsPending() bool {
	return c != nil && c.Pending == PendingYes
}

// ImagePath returns the attachment path or an empty string.
func (c *GiftCard) ImagePath() string {
	if c == nil {
		return ""
	}
	return StringValue(c.CardImagePath)
}

// LegacyCard is the first schema of the cards table. Every later column is
// added by migration on top of it.
type LegacyCard struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	CardNumber string          `gorm:"type:text;not null;uniqueIndex:idx_cards_card_number"`
	CardHolder string          `gorm:"type:text;not null"`
	Balance    decimal.Decimal `gorm:"type:real;not null"`
}

// TableName shares the cards table with GiftCard.
func (LegacyCard) TableName() string {
	return CardsTable
}

// StringValue dereferences an optional string.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// OptionalString returns nil for an empty string.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package db

import (
	"fmt"
	"time"

	"github.com/giftledger/giftledger/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// addedCardColumns lists the columns introduced after the base cards
// schema, in the order they were introduced.
var addedCardColumns = []string{
	"brand",
	"pin",
	"denomination",
	"purchase_price",
	"expected_price",
	"profit",
	"source",
	"card_image_path",
	"purchase_date",
	"created_at",
	"pending",
	"sold_date",
	"payment_received",
	"payment_mode",
}

type backfill struct {
	column string
	value  any
}

// Migrate brings the cards table up to the current schema. Every step only
// adds: missing columns are added as nullable and NULLs in selected columns
// receive defaults. Running it on an up-to-date database changes nothing.
func Migrate(conn *gorm.DB) error {
	return migrate(conn, time.Now().Format(models.DateLayout))
}

func migrate(conn *gorm.DB, today string) error {
	if conn == nil {
		return fmt.Errorf("db: migrate: nil connection")
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		m := tx.Migrator()
		if !m.HasTable(&models.LegacyCard{}) {
			if errCreate := m.CreateTable(&models.LegacyCard{}); errCreate != nil {
				return fmt.Errorf("db: create cards table: %w", errCreate)
			}
			log.Infof("created %s table", models.CardsTable)
		}

		for _, column := range addedCardColumns {
			if m.HasColumn(&models.GiftCard{}, column) {
				continue
			}
			if errAdd := m.AddColumn(&models.GiftCard{}, column); errAdd != nil {
				return fmt.Errorf("db: add column %s: %w", column, errAdd)
			}
			log.Infof("added column %s.%s", models.CardsTable, column)
		}

		const createdAtIndex = "idx_cards_created_at"
		if !m.HasIndex(&models.GiftCard{}, createdAtIndex) {
			if errIndex := m.CreateIndex(&models.GiftCard{}, createdAtIndex); errIndex != nil {
				return fmt.Errorf("db: create index %s: %w", createdAtIndex, errIndex)
			}
		}

		backfills := []backfill{
			{column: "brand", value: models.DefaultBrand},
			{column: "denomination", value: gorm.Expr("balance")},
			{column: "purchase_price", value: gorm.Expr("balance")},
			{column: "expected_price", value: gorm.Expr("balance")},
			{column: "profit", value: 0},
			{column: "source", value: models.DefaultSource},
			{column: "purchase_date", value: today},
			{column: "pending", value: models.PendingNo},
		}
		for _, fill := range backfills {
			res := tx.Model(&models.GiftCard{}).
				Where(clause.Eq{Column: clause.Column{Name: fill.column}, Value: nil}).
				Update(fill.column, fill.value)
			if res.Error != nil {
				return fmt.Errorf("db: backfill %s: %w", fill.column, res.Error)
			}
			if res.RowsAffected > 0 {
				log.Infof("backfilled %s on %d row(s)", fill.column, res.RowsAffected)
			}
		}
		return nil
	})
}

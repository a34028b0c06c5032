package db

import (
	"path/filepath"
	"testing"

	"github.com/giftledger/giftledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := Open(filepath.Join(t.TempDir(), "cards.db"), Options{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	t.Cleanup(func() { _ = Close(conn) })
	return conn
}

func createLegacyCardsTable(t *testing.T, conn *gorm.DB) {
	t.Helper()
	if errExec := conn.Exec(`
		CREATE TABLE cards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			card_number TEXT UNIQUE NOT NULL,
			card_holder TEXT NOT NULL,
			balance REAL NOT NULL
		)
	`).Error; errExec != nil {
		t.Fatalf("create legacy cards table: %v", errExec)
	}
	for _, row := range []struct {
		number  string
		holder  string
		balance float64
	}{
		{"GC-1", "Alice", 50},
		{"GC-2", "Bob", 25.5},
	} {
		if errInsert := conn.Exec(
			"INSERT INTO cards (card_number, card_holder, balance) VALUES (?, ?, ?)",
			row.number, row.holder, row.balance,
		).Error; errInsert != nil {
			t.Fatalf("insert legacy row %s: %v", row.number, errInsert)
		}
	}
}

func TestMigrateSQLiteCardColumns(t *testing.T) {
	conn := openTestDB(t)

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range append([]string{"card_number", "card_holder", "balance"}, addedCardColumns...) {
		if !conn.Migrator().HasColumn(models.CardsTable, column) {
			t.Fatalf("cards missing column %s", column)
		}
	}
	if !conn.Migrator().HasIndex(&models.GiftCard{}, "idx_cards_created_at") {
		t.Fatalf("cards missing created_at index")
	}
}

func TestMigrateSQLiteBackfillsLegacyCardsTable(t *testing.T) {
	conn := openTestDB(t)
	createLegacyCardsTable(t, conn)

	if errMigrate := migrate(conn, "2026-10-15"); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var rows []models.GiftCard
	if errFind := conn.Order("id ASC").Find(&rows).Error; errFind != nil {
		t.Fatalf("load migrated rows: %v", errFind)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Brand != models.DefaultBrand {
			t.Fatalf("%s brand = %q, want %q", row.CardNumber, row.Brand, models.DefaultBrand)
		}
		for name, got := range map[string]decimal.Decimal{
			"denomination":   row.Denomination,
			"purchase_price": row.PurchasePrice,
			"expected_price": row.ExpectedPrice,
		} {
			if !got.Equal(row.Balance) {
				t.Fatalf("%s %s = %s, want balance %s", row.CardNumber, name, got, row.Balance)
			}
		}
		if !row.Profit.IsZero() {
			t.Fatalf("%s profit = %s, want 0", row.CardNumber, row.Profit)
		}
		if row.Source != models.DefaultSource {
			t.Fatalf("%s source = %q, want %q", row.CardNumber, row.Source, models.DefaultSource)
		}
		if row.PurchaseDate != "2026-10-15" {
			t.Fatalf("%s purchase_date = %q, want 2026-10-15", row.CardNumber, row.PurchaseDate)
		}
		if row.Pending != models.PendingNo {
			t.Fatalf("%s pending = %q, want %q", row.CardNumber, row.Pending, models.PendingNo)
		}
		if row.PIN != nil || row.CardImagePath != nil || row.SoldDate != nil || row.PaymentMode != nil {
			t.Fatalf("%s optional text columns should stay NULL", row.CardNumber)
		}
		if row.PaymentReceived.Valid {
			t.Fatalf("%s payment_received should stay NULL", row.CardNumber)
		}
	}
	if !rows[1].Denomination.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("GC-2 denomination = %s, want 25.5", rows[1].Denomination)
	}
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	createLegacyCardsTable(t, conn)

	if errMigrate := migrate(conn, "2026-10-15"); errMigrate != nil {
		t.Fatalf("first migrate: %v", errMigrate)
	}
	if errUpdate := conn.Model(&models.GiftCard{}).
		Where("card_number = ?", "GC-1").
		Updates(map[string]any{"brand": "Amazon", "pin": "1234"}).Error; errUpdate != nil {
		t.Fatalf("edit migrated row: %v", errUpdate)
	}
	before := columnSignature(t, conn)

	if errMigrate := migrate(conn, "2030-01-01"); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}
	after := columnSignature(t, conn)

	if len(before) != len(after) {
		t.Fatalf("column count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("column %d changed: %q -> %q", i, before[i], after[i])
		}
	}

	var card models.GiftCard
	if errFind := conn.Where("card_number = ?", "GC-1").First(&card).Error; errFind != nil {
		t.Fatalf("load GC-1: %v", errFind)
	}
	if card.Brand != "Amazon" || models.StringValue(card.PIN) != "1234" {
		t.Fatalf("second migrate altered values: brand=%q pin=%q", card.Brand, models.StringValue(card.PIN))
	}
	if card.PurchaseDate != "2026-10-15" {
		t.Fatalf("second migrate rewrote purchase_date: %q", card.PurchaseDate)
	}
}

func columnSignature(t *testing.T, conn *gorm.DB) []string {
	t.Helper()
	columnTypes, errTypes := conn.Migrator().ColumnTypes(models.CardsTable)
	if errTypes != nil {
		t.Fatalf("column types: %v", errTypes)
	}
	out := make([]string, 0, len(columnTypes))
	for _, ct := range columnTypes {
		nullable, _ := ct.Nullable()
		flag := "not null"
		if nullable {
			flag = "null"
		}
		out = append(out, ct.Name()+" "+ct.DatabaseTypeName()+" "+flag)
	}
	return out
}

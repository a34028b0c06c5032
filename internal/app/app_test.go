package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giftledger/giftledger/internal/config"
	"github.com/giftledger/giftledger/internal/export"
	"github.com/giftledger/giftledger/internal/ledger"
	"github.com/shopspring/decimal"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(dir, "giftcards.db")
	cfg.Images.Dir = filepath.Join(dir, "card_images")
	return cfg
}

func TestMigrateCreatesDatabase(t *testing.T) {
	cfg := testConfig(t)
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, errStat := os.Stat(cfg.Database.DSN); errStat != nil {
		t.Fatalf("database file missing: %v", errStat)
	}
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestExportWritesCSV(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "out", "cards.csv")

	if _, err := Export(ctx, cfg, ExportParams{OutPath: out}); !errors.Is(err, export.ErrNoCards) {
		t.Fatalf("empty export error = %v, want ErrNoCards", err)
	}

	svc, cardStore, err := openLedger(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	pin := "2468"
	_, errCreate := svc.Create(ctx, ledger.CardInput{
		CardNumber:    "GC-9",
		Brand:         "Steam",
		PIN:           &pin,
		Denomination:  decimal.NewFromInt(20),
		PurchasePrice: decimal.NewFromInt(15),
		ExpectedPrice: decimal.NewFromInt(18),
	})
	_ = cardStore.Close()
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	path, err := Export(ctx, cfg, ExportParams{OutPath: out, MaskPIN: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		t.Fatalf("read export: %v", errRead)
	}
	if !strings.Contains(string(data), "GC-9,,Steam,****,$20.00,$15.00,$18.00,$3.00,Unknown,") {
		t.Fatalf("unexpected export: %q", data)
	}
}

func TestNewRouterServesHealthz(t *testing.T) {
	cfg := testConfig(t)
	svc, cardStore, err := openLedger(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer func() { _ = cardStore.Close() }()

	router := NewRouter(cfg, svc, cardStore)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.8:40000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("remote request: expected status 403, got %d", w.Code)
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Listen = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunServer(ctx, cfg); err != nil {
		t.Fatalf("run server: %v", err)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/giftledger/giftledger/internal/export"
)

func TestRunMigrateThenEmptyExport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIFTLEDGER_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("GIFTLEDGER_DSN", filepath.Join(dir, "giftcards.db"))
	t.Setenv("GIFTLEDGER_IMAGE_DIR", filepath.Join(dir, "card_images"))

	var out bytes.Buffer
	if err := run(context.Background(), []string{"migrate"}, &out); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	err := run(context.Background(), []string{"export", "-out", filepath.Join(dir, "cards.csv")}, &out)
	if !errors.Is(err, export.ErrNoCards) {
		t.Fatalf("export error = %v, want ErrNoCards", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIFTLEDGER_CONFIG", filepath.Join(dir, "missing.yaml"))
	var out bytes.Buffer
	if err := run(context.Background(), []string{"frobnicate"}, &out); err == nil {
		t.Fatalf("expected unknown command error")
	}
}

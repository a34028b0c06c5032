package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/giftledger/giftledger/internal/attachment"
	"github.com/giftledger/giftledger/internal/config"
	"github.com/giftledger/giftledger/internal/db"
	"github.com/giftledger/giftledger/internal/export"
	ledgerhttp "github.com/giftledger/giftledger/internal/http"
	"github.com/giftledger/giftledger/internal/http/api/cards"
	"github.com/giftledger/giftledger/internal/ledger"
	"github.com/giftledger/giftledger/internal/store"
	"github.com/giftledger/giftledger/internal/util"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// ExportParams holds inputs for a CSV export.
type ExportParams struct {
	OutPath string // Target file; empty picks gift_cards_export_<timestamp>.csv.
	MaskPIN bool   // Hide PINs in addition to the configured setting.
}

// LoadConfig resolves and loads the configuration for cfg.
func LoadConfig(cfg config.AppConfig) (config.Config, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if config.ConfigExists(configPath) {
		log.Debugf("loaded config %s", configPath)
	}
	return loaded, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(cfg.Database.DSN, db.Options{LockTimeout: cfg.Database.LockTimeout})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	log.Infof("database migrated: %s", cfg.Database.DSN)
	return nil
}

// openLedger opens and migrates storage and wires the ledger service.
func openLedger(cfg config.Config) (*ledger.Service, *store.Store, error) {
	conn, err := db.Open(cfg.Database.DSN, db.Options{LockTimeout: cfg.Database.LockTimeout})
	if err != nil {
		return nil, nil, err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		_ = db.Close(conn)
		return nil, nil, errMigrate
	}
	cardStore, err := store.New(conn, store.Options{OpTimeout: cfg.Database.LockTimeout})
	if err != nil {
		_ = db.Close(conn)
		return nil, nil, err
	}
	images, err := attachment.New(cfg.Images.Dir)
	if err != nil {
		_ = cardStore.Close()
		return nil, nil, err
	}
	return ledger.NewService(cardStore, images), cardStore, nil
}

// NewRouter builds the gin engine serving the ledger API.
func NewRouter(cfg config.Config, svc *ledger.Service, cardStore *store.Store) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), ledgerhttp.RequestLogMiddleware(), ledgerhttp.LoopbackOnlyMiddleware())
	cards.RegisterCardRoutes(engine, svc, cards.Options{Health: cardStore, MaskPIN: cfg.Export.MaskPIN})
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// RunServer serves the ledger API until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.Config) error {
	svc, cardStore, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := cardStore.Close(); errClose != nil {
			log.WithError(errClose).Warn("close store")
		}
	}()

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           NewRouter(cfg, svc, cardStore),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("giftledger listening on http://%s", cfg.Server.Listen)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
		close(errCh)
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	log.Info("giftledger stopped")
	return nil
}

// Export writes every card to a CSV file and returns its path.
func Export(ctx context.Context, cfg config.Config, params ExportParams) (string, error) {
	svc, cardStore, err := openLedger(cfg)
	if err != nil {
		return "", err
	}
	defer func() { _ = cardStore.Close() }()

	rows, err := svc.Cards(ctx, store.Filter{})
	if err != nil {
		return "", err
	}
	outPath := strings.TrimSpace(params.OutPath)
	if outPath == "" {
		outPath = util.ResolvePath(export.FileName(nowLocal()))
	}
	if len(rows) == 0 {
		return "", export.ErrNoCards
	}
	if errMkdir := os.MkdirAll(filepath.Dir(outPath), 0o755); errMkdir != nil {
		return "", fmt.Errorf("export: create dir: %w", errMkdir)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("export: create file: %w", err)
	}
	errWrite := export.WriteCSV(f, rows, export.Options{MaskPIN: params.MaskPIN || cfg.Export.MaskPIN})
	errClose := f.Close()
	if errWrite != nil {
		_ = os.Remove(outPath)
		return "", errWrite
	}
	if errClose != nil {
		return "", fmt.Errorf("export: close file: %w", errClose)
	}
	log.Infof("exported %d card(s) to %s", len(rows), outPath)
	return outPath, nil
}

// nowLocal returns the current local time.
func nowLocal() time.Time { return time.Now() }

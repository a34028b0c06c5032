package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/giftledger/giftledger/internal/app"
	"github.com/giftledger/giftledger/internal/config"
	"github.com/giftledger/giftledger/internal/export"
	"github.com/giftledger/giftledger/internal/logging"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: giftledger <command> [flags]

commands:
  serve    run the local ledger API (default)
  migrate  create or upgrade the card table
  export   write every card to a CSV file
`

func main() {
	if errEnv := godotenv.Load(); errEnv != nil && !errors.Is(errEnv, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "giftledger: load .env: %v\n", errEnv)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := run(ctx, os.Args[1:], os.Stdout); errRun != nil {
		if errors.Is(errRun, export.ErrNoCards) {
			fmt.Fprintln(os.Stderr, errRun)
			os.Exit(1)
		}
		log.WithError(errRun).Error("giftledger failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	command := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "path to config.yaml")
	var outPath string
	var maskPIN bool
	if command == "export" {
		fs.StringVar(&outPath, "out", "", "CSV file to write (default gift_cards_export_<timestamp>.csv)")
		fs.BoolVar(&maskPIN, "mask-pin", false, "replace PINs with '*'")
	}
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	cfg, errLoad := app.LoadConfig(config.AppConfig{ConfigPath: *configPath})
	if errLoad != nil {
		return errLoad
	}
	logCloser, errLog := logging.Setup(cfg.Logging)
	if errLog != nil {
		return errLog
	}
	defer func() { _ = logCloser.Close() }()

	switch command {
	case "serve":
		return app.RunServer(ctx, cfg)
	case "migrate":
		return app.Migrate(ctx, cfg)
	case "export":
		path, errExport := app.Export(ctx, cfg, app.ExportParams{OutPath: outPath, MaskPIN: maskPIN})
		if errExport != nil {
			return errExport
		}
		fmt.Fprintf(stdout, "Data exported successfully to %s\n", path)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

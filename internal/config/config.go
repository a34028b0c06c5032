// Package config loads the giftledger YAML configuration and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/giftledger/giftledger/internal/util"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is used when no path is given.
	DefaultConfigFile = "config.yaml"
	// DefaultDSN is the local SQLite file.
	DefaultDSN = "giftcards.db"
	// DefaultImageDir stores card images.
	DefaultImageDir = "card_images"
	// DefaultListen keeps the API on the loopback interface.
	DefaultListen = "127.0.0.1:8321"
	// DefaultLockTimeout bounds every storage call.
	DefaultLockTimeout = 20 * time.Second
	// DefaultLogLevel applies when logging.level is empty.
	DefaultLogLevel = "info"
)

// Environment overrides.
const (
	EnvConfig      = "GIFTLEDGER_CONFIG"
	EnvDSN         = "GIFTLEDGER_DSN"
	EnvImageDir    = "GIFTLEDGER_IMAGE_DIR"
	EnvListen      = "GIFTLEDGER_LISTEN"
	EnvLockTimeout = "GIFTLEDGER_LOCK_TIMEOUT"
	EnvLogLevel    = "GIFTLEDGER_LOG_LEVEL"
)

// AppConfig holds command line inputs.
type AppConfig struct {
	ConfigPath string
}

// Config is the on-disk configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Images   ImagesConfig   `yaml:"images"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Export   ExportConfig   `yaml:"export"`
}

// DatabaseConfig selects the record store.
type DatabaseConfig struct {
	DSN         string        `yaml:"dsn"`
	LockTimeout time.Duration `yaml:"lock-timeout"`
}

// ImagesConfig locates the attachment directory.
type ImagesConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig configures the local API listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	Debug  bool   `yaml:"debug"`
}

// LoggingConfig configures logrus and the optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
	Compress   bool   `yaml:"compress"`
}

// ExportConfig tunes the CSV export.
type ExportConfig struct {
	MaskPIN bool `yaml:"mask-pin"`
}

// ResolveConfigPath picks the config file: explicit path, GIFTLEDGER_CONFIG,
// then config.yaml under WRITABLE_PATH or the working directory.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
		return env
	}
	return util.ResolvePath(DefaultConfigFile)
}

// ConfigExists reports whether a regular file exists at path.
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{DSN: DefaultDSN, LockTimeout: DefaultLockTimeout},
		Images:   ImagesConfig{Dir: DefaultImageDir},
		Server:   ServerConfig{Listen: DefaultListen},
		Logging:  LoggingConfig{Level: DefaultLogLevel, MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// LoadConfig reads path when it exists, then applies environment overrides and defaults.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		case errors.Is(errRead, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}
	if errEnv := applyEnv(&cfg); errEnv != nil {
		return Config{}, errEnv
	}
	cfg.normalize()
	return cfg, nil
}

// LoadDatabaseDSN returns the DSN configured at path.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return "", err
	}
	return cfg.Database.DSN, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvDSN)); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageDir)); v != "" {
		cfg.Images.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLockTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s: %w", EnvLockTimeout, err)
		}
		cfg.Database.LockTimeout = d
	}
	return nil
}

func (cfg *Config) normalize() {
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = DefaultDSN
	}
	if cfg.Database.LockTimeout <= 0 {
		cfg.Database.LockTimeout = DefaultLockTimeout
	}
	if strings.TrimSpace(cfg.Images.Dir) == "" {
		cfg.Images.Dir = DefaultImageDir
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = DefaultListen
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	cfg.Database.DSN = resolveDSN(strings.TrimSpace(cfg.Database.DSN))
	cfg.Images.Dir = util.ResolvePath(cfg.Images.Dir)
	if cfg.Logging.File != "" {
		cfg.Logging.File = util.ResolvePath(cfg.Logging.File)
	}
}

// resolveDSN places relative SQLite file paths under WRITABLE_PATH.
func resolveDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.Contains(lower, "://") || strings.Contains(lower, "=") ||
		strings.HasPrefix(lower, "file:") || strings.Contains(lower, ":memory:") {
		return dsn
	}
	return util.ResolvePath(dsn)
}

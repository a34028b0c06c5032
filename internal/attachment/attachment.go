// Package attachment copies card images into the content directory. The
// record store only keeps the returned path; files outlive their cards.
package attachment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/giftledger/giftledger/internal/settings"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
)

// DefaultDir is the content directory used when none is configured.
const DefaultDir = "card_images"

// MaxImageBytes caps a single attachment.
const MaxImageBytes = 20 << 20

// ErrUnsupportedType is returned for files that are not images.
var ErrUnsupportedType = errors.New("attachment: unsupported image type")

// ErrTooLarge is returned when an image exceeds MaxImageBytes.
var ErrTooLarge = errors.New("attachment: image too large")

// Manager stores images under one directory.
type Manager struct {
	dir string
	now func() time.Time
}

// New returns a Manager for dir, creating the directory when missing.
func New(dir string) (*Manager, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDir
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("attachment: create dir: %w", errMkdir)
	}
	return &Manager{dir: dir, now: time.Now}, nil
}

// Dir returns the content directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Supported reports whether filename has an accepted image extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, accepted := range settings.ImageExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// Save copies src into the content directory and returns the stored path.
// filename is only used for its extension.
func (m *Manager) Save(cardNumber string, src io.Reader, filename string) (string, error) {
	if !Supported(filename) {
		return "", ErrUnsupportedType
	}
	target := filepath.Join(m.dir, m.fileName(cardNumber, filename))

	tmp, errTemp := os.CreateTemp(m.dir, ".upload-*")
	if errTemp != nil {
		return "", fmt.Errorf("attachment: create temp file: %w", errTemp)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	written, errCopy := io.Copy(tmp, io.LimitReader(src, MaxImageBytes+1))
	errClose := tmp.Close()
	if errCopy != nil {
		return "", fmt.Errorf("attachment: copy image: %w", errCopy)
	}
	if errClose != nil {
		return "", fmt.Errorf("attachment: close temp file: %w", errClose)
	}
	if written > MaxImageBytes {
		return "", ErrTooLarge
	}
	if errRename := os.Rename(tmpName, target); errRename != nil {
		return "", fmt.Errorf("attachment: store image: %w", errRename)
	}
	log.Debugf("attachment: stored %s (%d bytes)", target, written)
	return target, nil
}

// SaveFile copies the file at srcPath, keeping its modification time.
func (m *Manager) SaveFile(cardNumber, srcPath string) (string, error) {
	f, errOpen := os.Open(srcPath)
	if errOpen != nil {
		return "", fmt.Errorf("attachment: open source: %w", errOpen)
	}
	defer func() { _ = f.Close() }()

	target, errSave := m.Save(cardNumber, f, srcPath)
	if errSave != nil {
		return "", errSave
	}
	if info, errStat := f.Stat(); errStat == nil {
		_ = os.Chtimes(target, info.ModTime(), info.ModTime())
	}
	return target, nil
}

// fileName builds <card>_<YYYYMMDD_HHMMSS>_<suffix><ext>.
func (m *Manager) fileName(cardNumber, filename string) string {
	base := slug.Make(cardNumber)
	if base == "" {
		base = "card"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s_%s_%s%s", base, m.now().Format("20060102_150405"), suffix, ext)
}

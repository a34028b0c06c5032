package attachment

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestManager_SaveCopiesIntoDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "card_images")
	m, errNew := New(dir)
	if errNew != nil {
		t.Fatalf("new manager: %v", errNew)
	}
	m.now = func() time.Time { return time.Date(2026, 10, 15, 8, 30, 5, 0, time.UTC) }

	path, errSave := m.Save("GC 100/A", strings.NewReader("image-bytes"), "Front.JPG")
	if errSave != nil {
		t.Fatalf("save: %v", errSave)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("saved outside dir: %s", path)
	}
	pattern := regexp.MustCompile(`^gc-100-a_20261015_083005_[0-9a-f]{8}\.jpg$`)
	if !pattern.MatchString(filepath.Base(path)) {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		t.Fatalf("read saved file: %v", errRead)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("saved content = %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the stored image in dir, found %d entries", len(entries))
	}
}

func TestManager_SaveRejectsNonImages(t *testing.T) {
	m, errNew := New(t.TempDir())
	if errNew != nil {
		t.Fatalf("new manager: %v", errNew)
	}
	_, errSave := m.Save("GC-1", strings.NewReader("x"), "notes.txt")
	if !errors.Is(errSave, ErrUnsupportedType) {
		t.Fatalf("save error = %v, want unsupported type", errSave)
	}
}

func TestManager_SaveRejectsOversizedImages(t *testing.T) {
	dir := t.TempDir()
	m, errNew := New(dir)
	if errNew != nil {
		t.Fatalf("new manager: %v", errNew)
	}
	big := bytes.NewReader(make([]byte, MaxImageBytes+1))
	_, errSave := m.Save("GC-1", big, "big.png")
	if !errors.Is(errSave, ErrTooLarge) {
		t.Fatalf("save error = %v, want too large", errSave)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, found %d", len(entries))
	}
}

func TestManager_SaveFileKeepsModTime(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "scan.png")
	if errWrite := os.WriteFile(src, []byte("png"), 0o644); errWrite != nil {
		t.Fatalf("write source: %v", errWrite)
	}
	modTime := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if errTimes := os.Chtimes(src, modTime, modTime); errTimes != nil {
		t.Fatalf("chtimes: %v", errTimes)
	}

	m, errNew := New(filepath.Join(t.TempDir(), "images"))
	if errNew != nil {
		t.Fatalf("new manager: %v", errNew)
	}
	path, errSave := m.SaveFile("GC-7", src)
	if errSave != nil {
		t.Fatalf("save file: %v", errSave)
	}
	info, errStat := os.Stat(path)
	if errStat != nil {
		t.Fatalf("stat: %v", errStat)
	}
	if !info.ModTime().Equal(modTime) {
		t.Fatalf("mod time = %v, want %v", info.ModTime(), modTime)
	}
	if _, errStat := os.Stat(src); errStat != nil {
		t.Fatalf("source should remain: %v", errStat)
	}
}

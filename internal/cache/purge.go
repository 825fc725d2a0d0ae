package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeHTTP removes page entries saved more than maxAge ago, judged by the
// SavedAt field of each <key>.meta.json. Unreadable entries are skipped.
func PurgeHTTP(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := walkFiles(dir, func(path, name string, _ fs.DirEntry) {
		if !strings.HasSuffix(name, ".meta.json") {
			return
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		var e HTTPEntry
		if json.Unmarshal(b, &e) != nil || now.Sub(e.SavedAt) <= maxAge {
			return
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
	})
	return removed, err
}

// PurgeLLM removes completion entries not accessed within maxAge.
func PurgeLLM(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := walkFiles(dir, func(path, name string, d fs.DirEntry) {
		if strings.HasSuffix(name, ".meta.json") || !strings.HasSuffix(name, ".json") {
			return
		}
		info, err := d.Info()
		if err != nil || now.Sub(info.ModTime().UTC()) <= maxAge {
			return
		}
		removed++
		_ = os.Remove(path)
	})
	return removed, err
}

func walkFiles(dir string, fn func(path, name string, d fs.DirEntry)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			fn(path, d.Name(), d)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Package cache provides small on-disk caches for fetched pages and model
// completions. Entries are keyed by a sha256 digest so file names never leak
// URLs or prompts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
)

var errNoDir = errors.New("cache dir not configured")

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func perms(strict bool) (dir, file os.FileMode) {
	if strict {
		return 0o700, 0o600
	}
	return 0o755, 0o644
}

func ensureDir(dir string, strict bool) error {
	if dir == "" {
		return errNoDir
	}
	dperm, _ := perms(strict)
	if err := os.MkdirAll(dir, dperm); err != nil {
		return err
	}
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

// writeAtomic writes data to a sibling temp file and renames it into place
// so readers never observe a partial entry.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LLMCache stores model completions keyed by model name and prompt.
type LLMCache struct {
	Dir string
	// StrictPerms enforces 0700 on the directory and 0600 on entries.
	StrictPerms bool
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model string, prompt string) string {
	return digest(model + "\n\n" + prompt)
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present. A miss is not an error.
func (c *LLMCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, errNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// mtime doubles as last-access time for age based purging
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to cache.
func (c *LLMCache) Save(_ context.Context, key string, data []byte) error {
	if c == nil {
		return errNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	_, mode := perms(c.StrictPerms)
	return writeAtomic(c.pathFor(key), data, mode)
}

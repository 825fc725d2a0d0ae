package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPEntry captures enough metadata for conditional revalidation and for
// serving a page without the network while it is fresh.
type HTTPEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores responses as <key>.meta.json and <key>.body where key is
// sha256(url).
type HTTPCache struct {
	Dir         string
	StrictPerms bool
}

func (c *HTTPCache) metaPath(url string) string { return filepath.Join(c.Dir, digest(url)+".meta.json") }
func (c *HTTPCache) bodyPath(url string) string { return filepath.Join(c.Dir, digest(url)+".body") }

// LoadMeta returns entry metadata if present.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if c == nil {
		return nil, errNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(url))
	if err != nil {
		return nil, err
	}
	var e HTTPEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadBody returns the cached body if present.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if c == nil {
		return nil, errNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(url))
}

// Fresh returns the cached body and its metadata when the entry was saved
// less than maxAge ago. A non-positive maxAge never yields a fresh entry.
func (c *HTTPCache) Fresh(ctx context.Context, url string, maxAge time.Duration) ([]byte, *HTTPEntry, bool) {
	if maxAge <= 0 {
		return nil, nil, false
	}
	meta, err := c.LoadMeta(ctx, url)
	if err != nil || time.Since(meta.SavedAt) >= maxAge {
		return nil, nil, false
	}
	body, err := c.LoadBody(ctx, url)
	if err != nil {
		return nil, nil, false
	}
	return body, meta, true
}

// Save stores a new entry. The body is written before the metadata so a
// readable meta file always has a body next to it.
func (c *HTTPCache) Save(_ context.Context, url string, contentType string, etag string, lastModified string, body []byte) error {
	if c == nil {
		return errNoDir
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	_, mode := perms(c.StrictPerms)
	if err := writeAtomic(c.bodyPath(url), body, mode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(HTTPEntry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := writeAtomic(c.metaPath(url), meta, mode); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

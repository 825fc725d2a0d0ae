package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestHTTPCache_SaveLoad(t *testing.T) {
	c := &HTTPCache{Dir: t.TempDir()}
	url := "https://example.com/post"
	if err := c.Save(context.Background(), url, "text/html", `"v1"`, "", []byte("<p>hi</p>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(context.Background(), url)
	if err != nil || meta.ETag != `"v1"` || meta.URL != url {
		t.Fatalf("meta=%+v err=%v", meta, err)
	}
	body, err := c.LoadBody(context.Background(), url)
	if err != nil || string(body) != "<p>hi</p>" {
		t.Fatalf("body=%q err=%v", body, err)
	}
}

func TestHTTPCache_Fresh(t *testing.T) {
	c := &HTTPCache{Dir: t.TempDir()}
	url := "https://example.com/a"
	if err := c.Save(context.Background(), url, "text/html", "", "", []byte("body")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, ok := c.Fresh(context.Background(), url, time.Hour); !ok {
		t.Fatalf("expected fresh entry")
	}
	if _, _, ok := c.Fresh(context.Background(), url, 0); ok {
		t.Fatalf("zero max age must disable freshness")
	}
	if _, _, ok := c.Fresh(context.Background(), "https://example.com/missing", time.Hour); ok {
		t.Fatalf("missing entry reported fresh")
	}
}

func TestPurgeHTTP_RemovesExpired(t *testing.T) {
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	url := "https://example.com/old"
	if err := c.Save(context.Background(), url, "text/html", "", "", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	stale, _ := json.Marshal(HTTPEntry{URL: url, SavedAt: time.Now().Add(-72 * time.Hour)})
	if err := os.WriteFile(c.metaPath(url), stale, 0o644); err != nil {
		t.Fatalf("rewrite meta: %v", err)
	}
	removed, err := PurgeHTTP(dir, 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("removed=%d err=%v", removed, err)
	}
	if _, err := c.LoadBody(context.Background(), url); err == nil {
		t.Fatalf("body should be removed with its meta")
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/f", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
}

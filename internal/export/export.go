// Package export writes generated articles to disk as JSON, Markdown or PDF.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/pipeline"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// ErrNoArticle is returned when asked to render a failed run.
var ErrNoArticle = errors.New("response carries no article")

// FormatFromPath picks the format from a file extension; unknown extensions
// default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".pdf":
		return FormatPDF
	default:
		return FormatJSON
	}
}

// Render encodes resp in format f.
func Render(resp pipeline.Response, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return append(b, '\n'), nil
	case FormatMarkdown, FormatPDF:
		if resp.Article == nil {
			return nil, ErrNoArticle
		}
		md, err := Markdown(resp.Article)
		if err != nil {
			return nil, err
		}
		if f == FormatMarkdown {
			return []byte(md), nil
		}
		var buf bytes.Buffer
		if err := WritePDF(md, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile renders resp using the format implied by path and writes it,
// creating parent directories as needed.
func WriteFile(path string, resp pipeline.Response) error {
	f := FormatFromPath(path)
	b, err := Render(resp, f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("format", string(f)).Int("bytes", len(b)).Msg("article written")
	return nil
}

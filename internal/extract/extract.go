// Package extract turns a page URL into readable source text. A primary
// article scorer is tried first and a plain markup reader is used when it
// yields nothing.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// DefaultMaxContentLength is the body cap in characters.
const DefaultMaxContentLength = 10000

// Strategy is one way of producing a SourceDocument for a URL.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, url string) (SourceDocument, error)
}

// FallbackExtractor tries Primary, then Fallback. Failures inside a strategy
// are logged and treated as an empty result.
type FallbackExtractor struct {
	Primary  Strategy
	Fallback Strategy
	// MaxContentLength caps Text in characters. Zero means DefaultMaxContentLength.
	MaxContentLength int
}

// Extract returns the first document with non-empty text, truncated to the
// configured maximum. It fails with *Error when every strategy came up empty.
func (x *FallbackExtractor) Extract(ctx context.Context, url string) (SourceDocument, error) {
	var lastErr error
	for _, s := range []Strategy{x.Primary, x.Fallback} {
		if s == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return SourceDocument{}, &Error{URL: url, Err: err}
		}
		doc, err := s.Extract(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Str("strategy", s.Name()).Msg("extraction strategy failed")
			lastErr = err
			continue
		}
		if strings.TrimSpace(doc.Text) == "" {
			log.Warn().Str("url", url).Str("strategy", s.Name()).Msg("extraction strategy returned no text")
			continue
		}
		doc.URL = url
		doc.Method = s.Name()
		x.truncate(&doc)
		log.Info().Str("url", url).Str("strategy", s.Name()).Int("chars", utf8.RuneCountInString(doc.Text)).Msg("content extracted")
		return doc, nil
	}
	return SourceDocument{}, &Error{URL: url, Err: lastErr}
}

func (x *FallbackExtractor) truncate(doc *SourceDocument) {
	max := x.MaxContentLength
	if max <= 0 {
		max = DefaultMaxContentLength
	}
	n := utf8.RuneCountInString(doc.Text)
	if n <= max {
		return
	}
	doc.Text = string([]rune(doc.Text)[:max])
	doc.Truncated = true
	log.Info().Str("url", doc.URL).Int("from", n).Int("to", max).Msg("content truncated")
}

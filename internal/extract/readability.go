package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Fetcher returns the body and content type of a page. *fetch.Client
// satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// ReadabilityStrategy scores the page as an article and keeps the main body.
type ReadabilityStrategy struct {
	Fetcher Fetcher
}

func (ReadabilityStrategy) Name() string { return "readability" }

func (s ReadabilityStrategy) Extract(ctx context.Context, pageURL string) (SourceDocument, error) {
	body, _, err := s.Fetcher.Get(ctx, pageURL)
	if err != nil {
		return SourceDocument{}, fmt.Errorf("fetch: %w", err)
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return SourceDocument{}, err
	}
	art, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return SourceDocument{}, fmt.Errorf("readability: %w", err)
	}
	return SourceDocument{
		URL:         pageURL,
		Title:       strings.TrimSpace(art.Title),
		Text:        normalizeWhitespace(art.TextContent),
		Authors:     splitByline(art.Byline),
		PublishDate: art.PublishedTime,
		Description: strings.TrimSpace(art.Excerpt),
		TopImage:    strings.TrimSpace(art.Image),
	}, nil
}

var (
	bylinePrefixRe = regexp.MustCompile(`(?i)^\s*(by|written by|posted by)\s+`)
	bylineSplitRe  = regexp.MustCompile(`\s*(?:,|&|\band\b)\s*`)
)

// splitByline turns "By Ann Lee and Bo Chen" into ["Ann Lee", "Bo Chen"].
func splitByline(byline string) []string {
	byline = bylinePrefixRe.ReplaceAllString(strings.TrimSpace(byline), "")
	if byline == "" {
		return nil
	}
	var out []string
	for _, p := range bylineSplitRe.Split(byline, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeWhitespace trims every line, collapses internal whitespace runs
// and keeps at most one blank line between paragraphs.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapsed)
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

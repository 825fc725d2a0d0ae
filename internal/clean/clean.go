// Package clean normalises extracted page text before keyword analysis and
// prompting.
package clean

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinLineLength is the shortest line kept in aggressive mode.
const DefaultMinLineLength = 30

var (
	urlRe     = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"']+`)
	emailRe   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	specialRe = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?;:'"-]`)
	hspaceRe  = regexp.MustCompile(`[^\S\n]+`)
	blankRe   = regexp.MustCompile(`\n\s*\n+`)
	sentRe    = regexp.MustCompile(`[.!?]+`)
)

var strict = bluemonday.StrictPolicy()

// Cleaner removes markup remnants, links, addresses and symbols from text.
// The zero value is ready to use.
type Cleaner struct {
	// Aggressive drops lines shorter than MinLineLength, which are mostly
	// navigation and boilerplate.
	Aggressive    bool
	MinLineLength int
}

// Clean returns the normalised text. Line breaks survive; runs of blank
// lines collapse to one.
func (c Cleaner) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	s := norm.NFKC.String(text)
	s = html.UnescapeString(strict.Sanitize(s))
	s = urlRe.ReplaceAllString(s, "")
	s = emailRe.ReplaceAllString(s, "")
	s = specialRe.ReplaceAllString(s, "")
	s = normalizeWhitespace(s)
	if c.Aggressive {
		s = dropShortLines(s, c.minLine())
	}
	s = strings.TrimSpace(s)
	log.Debug().Int("chars", utf8.RuneCountInString(s)).Msg("text cleaned")
	return s
}

func (c Cleaner) minLine() int {
	if c.MinLineLength > 0 {
		return c.MinLineLength
	}
	return DefaultMinLineLength
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = hspaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func dropShortLines(s string, min int) string {
	var kept []string
	for _, l := range strings.Split(s, "\n") {
		if utf8.RuneCountInString(strings.TrimSpace(l)) >= min {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// Sentences splits on runs of terminal punctuation and drops empty parts.
func Sentences(text string) []string {
	var out []string
	for _, p := range sentRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Preview returns at most max characters of text, marking a cut with "...".
func Preview(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "..."
}

// Package recovery turns possibly-malformed model output into a keyed
// structure. It tries a fixed, ordered list of independent strategies
// against the same fence-stripped input and keeps the first syntactic
// success. It does not check which fields are present.
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/article"
)

// DiagnosticChars bounds the raw-text preview carried by ParseError.
const DiagnosticChars = 2000

// MaxScanChars bounds the balanced-brace scan measured from the first '{'.
const MaxScanChars = 20000

// ErrParse matches every ParseError via errors.Is.
var ErrParse = errors.New("model output is not valid JSON")

var errNoObject = errors.New("no brace-delimited object")

// ParseError is returned when every strategy failed. Raw holds at most the
// first DiagnosticChars characters of the original, unstripped input.
type ParseError struct {
	Raw      string
	Attempts Log
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s after %d recovery strategies", ErrParse.Error(), len(e.Attempts))
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Attempt records the outcome of a single strategy. Err is nil on success.
type Attempt struct {
	Strategy string
	Err      error
}

// Log is the ordered record of strategies tried for one input. It is
// diagnostic only.
type Log []Attempt

// Strategy is one independent way of reading a fence-stripped text.
type Strategy struct {
	Name  string
	Apply func(text string) (map[string]any, error)
}

// Strategies is the ordered cascade used by Parse.
var Strategies = []Strategy{
	{Name: "strict", Apply: strictParse},
	{Name: "substring", Apply: parseSubstring},
	{Name: "normalize", Apply: parseNormalized},
	{Name: "balanced-scan", Apply: parseBalanced},
}

// Parse recovers an Article from raw model output.
func Parse(raw string) (article.Article, error) {
	m, attempts, err := ParseRaw(raw)
	if err != nil {
		return article.Article{}, err
	}
	log.Debug().Str("strategy", attempts[len(attempts)-1].Strategy).Int("attempts", len(attempts)).Msg("model output recovered")
	return article.FromMap(m), nil
}

// ParseRaw runs the strategy cascade and returns the recovered structure
// together with the attempt log.
func ParseRaw(raw string) (map[string]any, Log, error) {
	text := StripFences(raw)
	attempts := make(Log, 0, len(Strategies))
	for _, s := range Strategies {
		m, err := s.Apply(text)
		attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
		if err == nil {
			return m, attempts, nil
		}
	}
	log.Debug().Int("raw_len", len(raw)).Msg("all recovery strategies failed")
	return nil, attempts, &ParseError{Raw: prefixRunes(raw, DiagnosticChars), Attempts: attempts}
}

// StripFences keeps only the interior of a ```json fenced block when one is
// present, else the interior of the first fenced block of any kind, else the
// text unchanged. The result is trimmed. An unterminated fence yields
// everything after the opening delimiter.
func StripFences(raw string) string {
	s := raw
	if _, after, ok := strings.Cut(s, "```json"); ok {
		s, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(s, "```"); ok {
		s, _, _ = strings.Cut(after, "```")
	}
	return strings.TrimSpace(s)
}

// strictParse accepts only a single standard JSON object with nothing but
// whitespace around it.
func strictParse(text string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("top-level value is not an object")
	}
	return m, nil
}

func parseSubstring(text string) (map[string]any, error) {
	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last < 0 || last <= first {
		return nil, errNoObject
	}
	return strictParse(text[first : last+1])
}

var (
	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
	controlRe       = regexp.MustCompile(`[\x00-\x09\x0b-\x1f\x7f]`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Normalize straightens typographic quotes, drops control characters other
// than newline and removes commas that directly precede a closing brace or
// bracket.
func Normalize(text string) string {
	s := quoteReplacer.Replace(text)
	s = controlRe.ReplaceAllString(s, "")
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

func parseNormalized(text string) (map[string]any, error) {
	return strictParse(Normalize(text))
}

// parseBalanced walks forward from the first '{' keeping running counts of
// opening and closing braces. Every '}' at which the counts are equal marks
// a candidate; the first candidate that parses wins. Counting incrementally
// yields the same candidates as recounting each prefix. The walk covers at
// most MaxScanChars characters.
func parseBalanced(text string) (map[string]any, error) {
	first := strings.IndexByte(text, '{')
	if first < 0 {
		return nil, errNoObject
	}
	opens, closes, seen := 0, 0, 0
	var lastErr error = errNoObject
	for off, r := range text[first:] {
		if seen == MaxScanChars {
			break
		}
		seen++
		switch r {
		case '{':
			opens++
		case '}':
			closes++
			if opens != closes {
				continue
			}
			m, err := strictParse(text[first : first+off+1])
			if err == nil {
				return m, nil
			}
			lastErr = err
		}
	}
	return nil, lastErr
}

func prefixRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

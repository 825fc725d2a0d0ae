package recovery

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

const payload = `{"title":"Go at scale","meta_description":"desc","introduction":"intro","sections":[{"heading":"One","content":"first"},{"heading":"Two","content":"second"}],"conclusion":"end","cta":"Try it","tags":["go","ops"]}`

func lastStrategy(t *testing.T, l Log) string {
	t.Helper()
	if len(l) == 0 {
		t.Fatalf("empty attempt log")
	}
	return l[len(l)-1].Strategy
}

func TestParseRaw_FencedJSONRecoveredExactly(t *testing.T) {
	raw := "Here is the article:\n```json\n" + payload + "\n```\nLet me know if you need changes."
	got, attempts, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var want map[string]any
	if err := json.Unmarshal([]byte(payload), &want); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("recovered structure differs:\n got %v\nwant %v", got, want)
	}
	if len(attempts) != 1 || attempts[0].Strategy != "strict" {
		t.Fatalf("expected strict parse to win, got %+v", attempts)
	}
}

func TestParseRaw_ProseWrappedUsesSubstring(t *testing.T) {
	raw := "Sure! Below is your post. " + payload + " I hope this helps with your launch."
	_, attempts, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastStrategy(t, attempts); got != "substring" {
		t.Fatalf("expected substring strategy, got %s", got)
	}
	if attempts[0].Err == nil {
		t.Fatalf("strict parse should have failed first")
	}
}

func TestParseRaw_TypographicQuotesAndTrailingComma(t *testing.T) {
	raw := "{“title”: “Hello”, “tags”: [“a”, “b”,]}"
	m, attempts, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastStrategy(t, attempts); got != "normalize" {
		t.Fatalf("expected normalize strategy, got %s", got)
	}
	if m["title"] != "Hello" {
		t.Fatalf("unexpected title: %v", m["title"])
	}
	tags, _ := m["tags"].([]any)
	if len(tags) != 2 {
		t.Fatalf("expected two tags, got %v", m["tags"])
	}
}

func TestParseRaw_BalancedScanIgnoresStrayClosingBrace(t *testing.T) {
	raw := `{"title":"A","tags":[]} and a stray } at the end`
	m, attempts, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastStrategy(t, attempts); got != "balanced-scan" {
		t.Fatalf("expected balanced-scan strategy, got %s (%+v)", got, attempts)
	}
	if m["title"] != "A" {
		t.Fatalf("unexpected title: %v", m["title"])
	}
}

func TestParseRaw_BalancedScanIsBounded(t *testing.T) {
	pad := strings.Repeat("é", MaxScanChars)
	raw := `{"title":"` + pad + `"} }`
	if _, _, err := ParseRaw(raw); err == nil {
		t.Fatalf("expected failure when the object closes beyond the scan limit")
	}

	short := `{"title":"` + strings.Repeat("x", 100) + `"} }`
	if _, _, err := ParseRaw(short); err != nil {
		t.Fatalf("expected success inside the scan limit: %v", err)
	}
}

func TestParseRaw_BalancedScanCountsCharacters(t *testing.T) {
	// closes at character 15012, byte 30012
	raw := `{"title":"` + strings.Repeat("é", 15000) + `"} trailing }`
	m, attempts, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("expected recovery inside the character limit: %v", err)
	}
	if got := lastStrategy(t, attempts); got != "balanced-scan" {
		t.Fatalf("expected balanced-scan strategy, got %s", got)
	}
	if title, _ := m["title"].(string); utf8.RuneCountInString(title) != 15000 {
		t.Fatalf("unexpected title length %d", utf8.RuneCountInString(title))
	}

	// the closing brace is exactly the last character inside the window
	inner := MaxScanChars - len(`{"title":""}`)
	edge := `{"title":"` + strings.Repeat("é", inner) + `"} }`
	if _, _, err := ParseRaw(edge); err != nil {
		t.Fatalf("expected recovery at the window edge: %v", err)
	}
	over := `{"title":"` + strings.Repeat("é", inner+1) + `"} }`
	if _, _, err := ParseRaw(over); err == nil {
		t.Fatalf("expected failure one character past the window")
	}
}

func TestParseRaw_NoBracesFailsWithDiagnostic(t *testing.T) {
	raw := strings.Repeat("the model wrote prose only ", 200)
	_, attempts, err := ParseRaw(raw)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Raw != raw[:DiagnosticChars] {
		t.Fatalf("diagnostic payload is not the first %d chars (len=%d)", DiagnosticChars, len(pe.Raw))
	}
	if len(attempts) != len(Strategies) {
		t.Fatalf("expected every strategy to be tried, got %d", len(attempts))
	}
}

func TestParseRaw_ShortInputDiagnosticIsWholeText(t *testing.T) {
	_, _, err := ParseRaw("nope")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Raw != "nope" {
		t.Fatalf("expected whole input as diagnostic, got %v", err)
	}
}

func TestParseRaw_ArrayInput(t *testing.T) {
	// substring isolates the inner object
	if _, _, err := ParseRaw(`[{"title":"x"}]`); err != nil {
		t.Fatalf("expected inner object to be recovered: %v", err)
	}
	if _, _, err := ParseRaw(`[1, 2, 3]`); err == nil {
		t.Fatalf("expected arrays without objects to fail")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  {\"a\":1}  ", `{"a":1}`},
		{"generic fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence preferred", "```python\nprint(1)\n```\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "{“a”: ‘b’,\t\n\"c\": [1, 2 ,\n ],\n}"
	want := "{\"a\": 'b',\n\"c\": [1, 2 ]}"
	if got := Normalize(in); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParse_ReturnsArticle(t *testing.T) {
	a, err := Parse("```json\n" + payload + "\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Title != "Go at scale" || len(a.Sections) != 2 || a.Sections[1].Heading != "Two" {
		t.Fatalf("unexpected article: %+v", a)
	}
}

// Package article defines the structured blog post exchanged with the text
// provider and its lenient decoding from recovered JSON.
package article

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Section is one heading-delimited block of the generated article.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Article is the structured long-form document produced by the provider.
// Sections keep the order in which the provider emitted them. Field
// completeness is not guaranteed; callers that need a title or sections
// must check for themselves.
type Article struct {
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description"`
	Introduction    string    `json:"introduction"`
	Sections        []Section `json:"sections"`
	Conclusion      string    `json:"conclusion"`
	CTA             string    `json:"cta"`
	Tags            []string  `json:"tags"`
}

// Schema is the output contract sent verbatim to the provider in both the
// initial and the repair prompt.
const Schema = `{
  "title": string,
  "meta_description": string,
  "introduction": string,
  "sections": [ { "heading": string, "content": string } ],
  "conclusion": string,
  "cta": string,
  "tags": [string]
}`

// FromMap converts a syntactically valid keyed structure into an Article.
// Conversion is lenient: missing fields stay empty, scalar values of other
// types are stringified and sections without heading and content are dropped.
func FromMap(m map[string]any) Article {
	a := Article{
		Title:           str(m["title"]),
		MetaDescription: str(m["meta_description"]),
		Introduction:    str(m["introduction"]),
		Conclusion:      str(m["conclusion"]),
		CTA:             str(m["cta"]),
	}
	if raw, ok := m["sections"].([]any); ok {
		a.Sections = make([]Section, 0, len(raw))
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			s := Section{Heading: str(obj["heading"]), Content: str(obj["content"])}
			if s.Heading == "" && s.Content == "" {
				continue
			}
			a.Sections = append(a.Sections, s)
		}
	}
	switch tags := m["tags"].(type) {
	case []any:
		a.Tags = make([]string, 0, len(tags))
		for _, t := range tags {
			if s := str(t); s != "" {
				a.Tags = append(a.Tags, s)
			}
		}
	case string:
		// Some providers return a comma-separated string instead of a list.
		for _, t := range strings.Split(tags, ",") {
			if s := strings.TrimSpace(t); s != "" {
				a.Tags = append(a.Tags, s)
			}
		}
	}
	return a
}

// FullText concatenates title, introduction, conclusion and every section
// heading and body, separated by spaces.
func (a Article) FullText() string {
	parts := []string{a.Title, a.Introduction, a.Conclusion}
	for _, s := range a.Sections {
		parts = append(parts, s.Heading, s.Content)
	}
	return strings.Join(parts, " ")
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

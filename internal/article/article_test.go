package article

import (
	"strings"
	"testing"
)

func TestFromMap_PreservesSectionOrder(t *testing.T) {
	m := map[string]any{
		"title": "  Title  ",
		"sections": []any{
			map[string]any{"heading": "First", "content": "a"},
			map[string]any{"heading": "", "content": ""},
			"not an object",
			map[string]any{"heading": "Second", "content": "b"},
		},
		"tags": []any{"go", "", 3.0},
	}
	a := FromMap(m)
	if a.Title != "Title" {
		t.Fatalf("title not trimmed: %q", a.Title)
	}
	if len(a.Sections) != 2 || a.Sections[0].Heading != "First" || a.Sections[1].Heading != "Second" {
		t.Fatalf("unexpected sections: %+v", a.Sections)
	}
	if len(a.Tags) != 2 || a.Tags[1] != "3" {
		t.Fatalf("unexpected tags: %v", a.Tags)
	}
}

func TestFromMap_MissingFieldsAreEmpty(t *testing.T) {
	a := FromMap(map[string]any{"cta": "Sign up"})
	if a.Title != "" || a.Sections != nil || a.CTA != "Sign up" {
		t.Fatalf("unexpected article: %+v", a)
	}
}

func TestFromMap_CommaSeparatedTags(t *testing.T) {
	a := FromMap(map[string]any{"tags": "seo, content ,  "})
	if len(a.Tags) != 2 || a.Tags[0] != "seo" || a.Tags[1] != "content" {
		t.Fatalf("unexpected tags: %v", a.Tags)
	}
}

func TestFullText_IncludesSections(t *testing.T) {
	a := Article{Title: "T", Introduction: "I", Conclusion: "C", Sections: []Section{{Heading: "H", Content: "B"}}}
	got := a.FullText()
	for _, want := range []string{"T", "I", "C", "H", "B"} {
		if !strings.Contains(got, want) {
			t.Fatalf("full text %q missing %q", got, want)
		}
	}
}

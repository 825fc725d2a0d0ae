package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelector lists elements removed before the region is chosen.
const noiseSelector = "script, style, nav, header, footer, aside, form, iframe, noscript"

// textSelector lists the elements whose text is collected from the region.
const textSelector = "p, h1, h2, h3, h4, li"

// MarkupStrategy reads the raw markup directly. It is the fallback for pages
// the article scorer cannot handle.
type MarkupStrategy struct {
	Fetcher Fetcher
}

func (MarkupStrategy) Name() string { return "markup" }

func (s MarkupStrategy) Extract(ctx context.Context, pageURL string) (SourceDocument, error) {
	body, _, err := s.Fetcher.Get(ctx, pageURL)
	if err != nil {
		return SourceDocument{}, fmt.Errorf("fetch: %w", err)
	}
	doc, err := FromMarkup(body)
	if err != nil {
		return SourceDocument{}, err
	}
	doc.URL = pageURL
	return doc, nil
}

// FromMarkup extracts title, description and region text from HTML.
func FromMarkup(input []byte) (SourceDocument, error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return SourceDocument{}, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find(noiseSelector).Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	var lines []string
	region(doc).Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	return SourceDocument{
		Title:       title,
		Text:        strings.Join(lines, "\n"),
		Description: strings.TrimSpace(desc),
	}, nil
}

// region picks the first article, else main, else the first div with a class
// mentioning content, post or entry, else body.
func region(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("article").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s
	}
	div := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, c := range strings.Fields(strings.ToLower(s.AttrOr("class", ""))) {
			if strings.Contains(c, "content") || strings.Contains(c, "post") || strings.Contains(c, "entry") {
				return true
			}
		}
		return false
	}).First()
	if div.Length() > 0 {
		return div
	}
	return doc.Find("body").First()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package export

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/hyperifyio/blogforge/internal/images"
	"github.com/hyperifyio/blogforge/internal/pipeline"
)

var htmlTagRe = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

// Markdown lays out a post as a Markdown document. Section bodies that carry
// HTML are converted; plain text is kept as written.
func Markdown(p *pipeline.Post) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Title)
	if p.MetaDescription != "" {
		fmt.Fprintf(&sb, "> %s\n\n", p.MetaDescription)
	}
	if p.FeaturedImage != nil {
		writeImage(&sb, *p.FeaturedImage)
	}
	if err := writeBody(&sb, p.Introduction); err != nil {
		return "", fmt.Errorf("introduction: %w", err)
	}
	for i, s := range p.Sections {
		if s.Heading != "" {
			fmt.Fprintf(&sb, "## %s\n\n", s.Heading)
		}
		if err := writeBody(&sb, s.Content); err != nil {
			return "", fmt.Errorf("section %d: %w", i+1, err)
		}
		if i < len(p.AdditionalImages) {
			writeImage(&sb, p.AdditionalImages[i])
		}
	}
	if p.Conclusion != "" {
		sb.WriteString("## Conclusion\n\n")
		if err := writeBody(&sb, p.Conclusion); err != nil {
			return "", fmt.Errorf("conclusion: %w", err)
		}
	}
	if p.CTA != "" {
		fmt.Fprintf(&sb, "**%s**\n\n", p.CTA)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	return sb.String(), nil
}

func writeBody(sb *strings.Builder, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if htmlTagRe.MatchString(body) {
		md, err := htmltomarkdown.ConvertString(body)
		if err != nil {
			return err
		}
		body = strings.TrimSpace(md)
	}
	sb.WriteString(body)
	sb.WriteString("\n\n")
	return nil
}

func writeImage(sb *strings.Builder, img images.Image) {
	if img.URL == "" {
		return
	}
	fmt.Fprintf(sb, "![%s](%s)\n", img.AltText, img.URL)
	if img.Photographer != "" {
		if img.PhotographerURL != "" {
			fmt.Fprintf(sb, "*Photo by [%s](%s) on Unsplash*\n", img.Photographer, img.PhotographerURL)
		} else {
			fmt.Fprintf(sb, "*Photo by %s on Unsplash*\n", img.Photographer)
		}
	}
	sb.WriteString("\n")
}

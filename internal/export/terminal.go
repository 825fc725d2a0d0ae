package export

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"github.com/hyperifyio/blogforge/internal/pipeline"
)

// DefaultWrap is the column width used by Terminal when width is not positive.
const DefaultWrap = 80

// Terminal renders the article's Markdown for display in a terminal. An
// empty style picks a light or dark theme from the terminal background;
// "notty" yields plain text.
func Terminal(p *pipeline.Post, width int, style string) (string, error) {
	if p == nil {
		return "", ErrNoArticle
	}
	md, err := Markdown(p)
	if err != nil {
		return "", err
	}
	if width <= 0 {
		width = DefaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

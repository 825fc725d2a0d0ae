// Package generate turns a prompt into a structured article, spending at most
// one extra provider call on repairing output that could not be parsed.
package generate

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/article"
	"github.com/hyperifyio/blogforge/internal/recovery"
)

// Invoker produces raw model text for a prompt. *llm.Invoker satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Generator runs the generate, parse, repair-once cycle.
type Generator struct {
	Invoker Invoker
}

// GenerateStructured invokes the provider and parses its output. A parse
// failure triggers exactly one repair invocation; a second parse failure is
// returned as is. Provider failures propagate immediately without repair.
func (g *Generator) GenerateStructured(ctx context.Context, prompt string) (article.Article, error) {
	if g == nil || g.Invoker == nil {
		return article.Article{}, errors.New("generator not configured")
	}
	raw, err := g.Invoker.Invoke(ctx, prompt)
	if err != nil {
		return article.Article{}, err
	}
	a, err := recovery.Parse(raw)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, recovery.ErrParse) {
		return article.Article{}, err
	}
	log.Warn().Int("raw_len", len(raw)).Msg("model output not parseable; requesting repair")
	log.Debug().Str("raw_preview", preview(raw)).Msg("unparseable model output")

	fixed, err := g.Invoker.Invoke(ctx, RepairPrompt(raw))
	if err != nil {
		return article.Article{}, err
	}
	a, err = recovery.Parse(fixed)
	if err != nil {
		log.Error().Int("raw_len", len(fixed)).Msg("repair output not parseable")
		return article.Article{}, err
	}
	log.Info().Msg("repair succeeded")
	return a, nil
}

// RepairPrompt asks the model to reformat its previous output. The raw text
// is embedded unmodified.
func RepairPrompt(raw string) string {
	var sb strings.Builder
	sb.WriteString("The previous output was not valid JSON. Reformat it so that it matches this exact schema:\n\n")
	sb.WriteString(article.Schema)
	sb.WriteString("\n\nReturn ONLY the corrected JSON object. No markdown fences, no commentary.\n\nORIGINAL OUTPUT:\n")
	sb.WriteString(raw)
	return sb.String()
}

func preview(s string) string {
	const n = 500
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

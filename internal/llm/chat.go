package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/blogforge/internal/cache"
)

// DefaultMaxTokens bounds the completion length.
const DefaultMaxTokens = 2500

// ErrEmptyCompletion indicates the backend answered without usable content.
var ErrEmptyCompletion = errors.New("empty completion")

// ChatProvider implements Provider on top of a chat completion Client. Each
// prompt is sent as a single user message with deterministic sampling.
type ChatProvider struct {
	Client    Client
	Model     string
	MaxTokens int
	// Cache, when set, short-circuits repeated prompts for the same model.
	Cache *cache.LLMCache
}

func (p *ChatProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.Client == nil || strings.TrimSpace(p.Model) == "" {
		return "", errors.New("chat provider not configured")
	}
	key := cache.KeyFrom(p.Model, prompt)
	if p.Cache != nil {
		if raw, ok, _ := p.Cache.Get(ctx, key); ok {
			var out struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(raw, &out); err == nil && strings.TrimSpace(out.Content) != "" {
				log.Debug().Str("model", p.Model).Msg("llm cache hit")
				return out.Content, nil
			}
		}
	}
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	req := openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// an exact zero is dropped by omitempty and the server default applies
		Temperature: math.SmallestNonzeroFloat32,
		TopP:        1,
		MaxTokens:   maxTokens,
		N:           1,
	}
	resp, err := p.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := resp.Choices[0].Message.Content
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyCompletion
	}
	if p.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"content": out})
		_ = p.Cache.Save(ctx, key, payload)
	}
	return out, nil
}

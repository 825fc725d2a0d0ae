package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/blogforge/internal/cache"
)

type capturingClient struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	content string
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = req
	if c.content == "" {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content},
		}},
	}, nil
}

func TestChatProvider_RequestParameters(t *testing.T) {
	cc := &capturingClient{content: "{}"}
	p := &ChatProvider{Client: cc, Model: "m"}
	if _, err := p.Generate(context.Background(), "write"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := cc.lastReq
	if len(req.Messages) != 1 || req.Messages[0].Role != openai.ChatMessageRoleUser || req.Messages[0].Content != "write" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if req.TopP != 1 || req.MaxTokens != DefaultMaxTokens || req.Temperature > 1e-6 {
		t.Fatalf("unexpected sampling parameters: temp=%v top_p=%v max=%d", req.Temperature, req.TopP, req.MaxTokens)
	}
}

func TestChatProvider_EmptyChoicesIsFailure(t *testing.T) {
	p := &ChatProvider{Client: &capturingClient{}, Model: "m"}
	if _, err := p.Generate(context.Background(), "x"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestChatProvider_CacheHitSkipsClient(t *testing.T) {
	cc := &capturingClient{content: "answer"}
	p := &ChatProvider{Client: cc, Model: "m", Cache: &cache.LLMCache{Dir: t.TempDir()}}
	for i := 0; i < 2; i++ {
		out, err := p.Generate(context.Background(), "same prompt")
		if err != nil || out != "answer" {
			t.Fatalf("iteration %d: out=%q err=%v", i, out, err)
		}
	}
	if cc.calls != 1 {
		t.Fatalf("expected a single backend call, got %d", cc.calls)
	}
}

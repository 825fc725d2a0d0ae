// Command openai-stub is a minimal OpenAI-compatible server for local runs
// and tests. It answers every chat completion with a fixed blog article.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

var article = map[string]any{
	"title":            "A Practical Guide to the Topic",
	"meta_description": "A practical, hands-on guide covering the essentials, common pitfalls and next steps, written for readers who want clear answers without the usual fluff.",
	"introduction":     "This guide walks through the essentials in plain language.",
	"sections": []map[string]string{
		{"heading": "Why It Matters", "content": "Understanding the basics saves time and avoids costly mistakes."},
		{"heading": "Getting Started", "content": "Begin with a small, well-defined goal and iterate."},
		{"heading": "Common Pitfalls", "content": "Skipping measurement is the most frequent error."},
	},
	"conclusion": "With the fundamentals in place, the next steps are straightforward.",
	"cta":        "Start your first project today.",
	"tags":       []string{"guide", "basics", "how-to"},
}

// render wraps the article the way a chatty model might, depending on mode:
// "fenced", "prose", "broken" (trailing comma and typographic quotes) or
// plain JSON.
func render(mode string) string {
	b, _ := json.Marshal(article)
	s := string(b)
	switch mode {
	case "fenced":
		return "Here is your article:\n```json\n" + s + "\n```"
	case "prose":
		return "Sure! " + s + " Let me know if you want changes."
	case "broken":
		s = strings.Replace(s, `"title":`, `“title”:`, 1)
		return strings.TrimSuffix(s, "}") + ",}"
	default:
		return s
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	mode := strings.TrimSpace(os.Getenv("STUB_MODE"))

	if err := http.ListenAndServe(addr, newHandler(model, mode)); err != nil {
		log.Fatal().Err(err).Msg("openai-stub stopped")
	}
}

func newHandler(model, mode string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		user := req.Messages[len(req.Messages)-1].Content
		content := render(mode)
		// Repair prompts always get clean JSON back.
		if strings.Contains(user, "previous output was not valid JSON") {
			content = render("")
		}
		log.Info().Str("model", req.Model).Int("prompt_chars", len(user)).Str("mode", mode).Msg("chat completion")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	log.Info().Str("model", model).Str("mode", mode).Msg("openai-stub ready")
	return mux
}

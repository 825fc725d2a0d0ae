// Package budget estimates token usage and provider cost for a generation.
package budget

import (
	"math"
	"strings"
)

// DefaultPromptChars is the typical size of a rendered generation prompt.
const DefaultPromptChars = 2000

// CharsPerOutputWord approximates the characters the model emits per
// requested article word, JSON framing included.
const CharsPerOutputWord = 6

// DefaultPricePer1K is the fallback USD price per thousand tokens.
const DefaultPricePer1K = 0.0001

// EstimateTokensFromChars converts a character count into an estimated token
// count at roughly four characters per token. The result is at least 1 when
// chars > 0.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(len(s))
}

// Estimate is a rough cost forecast for one article.
type Estimate struct {
	PromptTokens int     `json:"prompt_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"estimated_cost_usd"`
}

// EstimateCost forecasts tokens and cost for a prompt of promptChars and an
// article of words. A non-positive price selects DefaultPricePer1K.
func EstimateCost(promptChars, words int, pricePer1K float64) Estimate {
	if promptChars <= 0 {
		promptChars = DefaultPromptChars
	}
	if pricePer1K <= 0 {
		pricePer1K = DefaultPricePer1K
	}
	e := Estimate{
		PromptTokens: EstimateTokensFromChars(promptChars),
		OutputTokens: EstimateTokensFromChars(words * CharsPerOutputWord),
	}
	cost := float64(e.PromptTokens+e.OutputTokens) / 1000 * pricePer1K
	e.CostUSD = math.Round(cost*1e6) / 1e6
	return e
}

// ModelContextTokens returns an estimated context window for a model name.
// Unknown models fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range []struct {
		suffix string
		tokens int
	}{{"1m", 1_000_000}, {"200k", 200_000}, {"128k", 128_000}, {"32k", 32_768}} {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") || strings.HasPrefix(name, "gemini") {
		return 128_000
	}
	return 8192
}

// FitsInContext reports whether a prompt of promptTokens leaves room for
// reservedForOutput tokens in the model's window.
func FitsInContext(modelName string, reservedForOutput int, promptTokens int) bool {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	return ModelContextTokens(modelName)-reservedForOutput-promptTokens > 0
}

var knownModelMax = map[string]int{
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-4-turbo":   128_000,
	"gpt-3.5-turbo": 16_384,
	"llama-3":       8_192,
	"llama-3.1":     128_000,
	"gpt-oss-20b":   4_096,
}

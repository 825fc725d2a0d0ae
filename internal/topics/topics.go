// Package topics guesses what a page is for and what it is about.
package topics

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/clean"
)

// Intent labels the purpose of a source page.
type Intent string

const (
	Service       Intent = "service"
	Product       Intent = "product"
	Blog          Intent = "blog"
	Informational Intent = "informational"
	Commercial    Intent = "commercial"
)

// intentOrder fixes tie-breaking: the earlier intent wins equal scores.
var intentOrder = []Intent{Service, Product, Blog, Informational, Commercial}

var intentPatterns = map[Intent][]string{
	Service:       {"service", "solution", "consulting", "help", "support", "provide", "offer"},
	Product:       {"buy", "shop", "product", "price", "purchase", "store", "cart", "order"},
	Blog:          {"article", "blog", "post", "guide", "tutorial", "learn", "read"},
	Informational: {"about", "information", "learn", "understand", "explain", "what is"},
	Commercial:    {"pricing", "plans", "subscribe", "premium", "pro", "enterprise"},
}

const (
	summarySentences  = 3
	minSentenceLength = 20
	maxTopics         = 5
)

var entityRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

// Analysis describes the source page.
type Analysis struct {
	Summary       string   `json:"summary"`
	Intent        Intent   `json:"intent"`
	Topics        []string `json:"topics"`
	ContentLength int      `json:"content_length"`
}

// Analyze detects intent, builds an extractive summary and picks topics.
// Topics come from keywords when any are given, else from capitalised
// phrases in the text.
func Analyze(text, title string, keywords []string) Analysis {
	a := Analysis{
		Summary:       Summary(text),
		Intent:        DetectIntent(text, title),
		ContentLength: utf8.RuneCountInString(text),
	}
	if len(keywords) > 0 {
		a.Topics = append([]string{}, keywords[:min(len(keywords), maxTopics)]...)
	} else {
		a.Topics = Entities(text, maxTopics)
	}
	log.Info().Str("intent", string(a.Intent)).Int("topics", len(a.Topics)).Msg("topic analysis complete")
	return a
}

// DetectIntent counts pattern occurrences per intent in the lowercased text
// and title. With no hits at all the page is informational.
func DetectIntent(text, title string) Intent {
	lower := strings.ToLower(text + " " + title)
	best, bestScore := Informational, 0
	for _, in := range intentOrder {
		score := 0
		for _, p := range intentPatterns[in] {
			score += strings.Count(lower, p)
		}
		if score > bestScore {
			best, bestScore = in, score
		}
	}
	return best
}

// Summary joins the first three sentences longer than twenty characters.
func Summary(text string) string {
	var picked []string
	for _, s := range clean.Sentences(text) {
		if utf8.RuneCountInString(s) <= minSentenceLength {
			continue
		}
		picked = append(picked, s)
		if len(picked) == summarySentences {
			break
		}
	}
	if len(picked) == 0 {
		return ""
	}
	return strings.Join(picked, ". ") + "."
}

// Entities returns the n most frequent capitalised phrases. Ties keep
// first-occurrence order.
func Entities(text string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, m := range entityRe.FindAllString(text, -1) {
		if counts[m] == 0 {
			order = append(order, m)
		}
		counts[m]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

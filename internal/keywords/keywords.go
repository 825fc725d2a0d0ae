// Package keywords ranks the terms of a text by frequency and splits them
// into primary and secondary keywords.
package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

const (
	// MinTextLength is the shortest trimmed text analysed.
	MinTextLength    = 50
	PrimaryThreshold = 0.3
	MaxPrimary       = 5
	MaxSecondary     = 10
	// TopN bounds how many ranked terms are considered at all.
	TopN = 15
)

// Scored is a term with its relevance in [0, 1].
type Scored struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Result is the keyword summary of a text.
type Result struct {
	Primary   []string           `json:"primary_keywords"`
	Secondary []string           `json:"secondary_keywords"`
	Density   map[string]float64 `json:"keyword_density"`
	All       []string           `json:"all_keywords"`
}

// Extractor scores unigrams and bigrams. The zero value uses the package
// defaults.
type Extractor struct {
	Threshold float64
}

// Extract ranks the text's terms and categorises them. Texts shorter than
// MinTextLength yield an empty result.
func (x Extractor) Extract(text string) Result {
	res := Result{Primary: []string{}, Secondary: []string{}, Density: map[string]float64{}, All: []string{}}
	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		log.Warn().Msg("text too short for keyword extraction")
		return res
	}
	ranked := Rank(text, TopN)
	threshold := x.Threshold
	if threshold <= 0 {
		threshold = PrimaryThreshold
	}
	for _, s := range ranked {
		res.All = append(res.All, s.Term)
		if s.Score >= threshold {
			if len(res.Primary) < MaxPrimary {
				res.Primary = append(res.Primary, s.Term)
			}
			continue
		}
		if len(res.Secondary) < MaxSecondary {
			res.Secondary = append(res.Secondary, s.Term)
		}
	}
	res.Density = Density(text, append(append([]string{}, res.Primary...), res.Secondary...))
	log.Info().Int("primary", len(res.Primary)).Int("secondary", len(res.Secondary)).Msg("keywords extracted")
	return res
}

// Rank returns at most n terms ordered by descending score. Scores are term
// counts divided by the highest count, so the top term scores 1. A bigram
// needs at least two occurrences. Ties keep first-occurrence order.
func Rank(text string, n int) []Scored {
	tokens := Tokenize(text)
	type stat struct {
		count int
		first int
	}
	stats := map[string]*stat{}
	add := func(term string, pos int) {
		if s, ok := stats[term]; ok {
			s.count++
			return
		}
		stats[term] = &stat{count: 1, first: pos}
	}
	for i, t := range tokens {
		if !isContent(t) {
			continue
		}
		add(t, i)
		if i+1 < len(tokens) && isContent(tokens[i+1]) {
			add(t+" "+tokens[i+1], i)
		}
	}
	max := 0
	for term, s := range stats {
		if strings.Contains(term, " ") && s.count < 2 {
			delete(stats, term)
			continue
		}
		if s.count > max {
			max = s.count
		}
	}
	out := make([]Scored, 0, len(stats))
	for term, s := range stats {
		out = append(out, Scored{Term: term, Score: round(float64(s.count)/float64(max), 4)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return stats[out[i].Term].first < stats[out[j].Term].first
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Density maps each keyword to its occurrence count in the lowercased text
// divided by the total word count, rounded to four decimals.
func Density(text string, kws []string) map[string]float64 {
	out := map[string]float64{}
	lower := strings.ToLower(text)
	total := len(strings.Fields(lower))
	if total == 0 {
		return out
	}
	for _, k := range kws {
		out[k] = round(float64(strings.Count(lower, strings.ToLower(k)))/float64(total), 4)
	}
	return out
}

// Tokenize lowercases text and splits it into words made of letters, digits
// and inner apostrophes or hyphens.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-')
	})
	out := words[:0]
	for _, w := range words {
		if w = strings.Trim(w, "'-"); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func isContent(tok string) bool {
	if len([]rune(tok)) < 3 {
		return false
	}
	if _, ok := stopWords[tok]; ok {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

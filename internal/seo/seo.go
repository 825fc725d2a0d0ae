// Package seo scores a generated article against common search guidelines.
package seo

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/article"
	"github.com/hyperifyio/blogforge/internal/clean"
)

const (
	MetaMin      = 150
	MetaMax      = 160
	TitleMax     = 60
	MinWords     = 300
	MinSections  = 3
	MaxSections  = 7
	DensityMin   = 0.005
	DensityMax   = 0.025
	maxUnderused = 3
)

var wordRe = regexp.MustCompile(`\b\w+\b`)

// LengthCheck reports the length of a field and whether it is acceptable.
type LengthCheck struct {
	Length int    `json:"length"`
	Valid  bool   `json:"is_valid"`
	Issue  string `json:"issue,omitempty"`
}

// Headings describes the article outline.
type Headings struct {
	HasH1           bool     `json:"has_h1"`
	H2Count         int      `json:"h2_count"`
	Valid           bool     `json:"is_valid"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Readability is a coarse difficulty grade from sentence and word length.
type Readability struct {
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	AvgWordLength     float64 `json:"avg_word_length"`
	Level             string  `json:"level"`
}

// Report is the full analysis of one article.
type Report struct {
	WordCount       int                `json:"word_count"`
	Densities       map[string]float64 `json:"keyword_densities"`
	Meta            LengthCheck        `json:"meta_description"`
	Title           LengthCheck        `json:"title"`
	Headings        Headings           `json:"heading_structure"`
	Readability     Readability        `json:"readability"`
	Recommendations []string           `json:"recommendations"`
	Score           int                `json:"seo_score"`
}

// Analyze scores a against keywords. It never modifies the article.
func Analyze(a article.Article, keywords []string) Report {
	text := a.FullText()
	r := Report{
		WordCount:   CountWords(text),
		Densities:   Densities(text, keywords),
		Meta:        checkMeta(a.MetaDescription),
		Title:       checkTitle(a.Title),
		Headings:    checkHeadings(a),
		Readability: Grade(text),
	}
	r.Recommendations = []string{}
	if r.WordCount < MinWords {
		r.Recommendations = append(r.Recommendations, fmt.Sprintf("Content is short (%d words). Aim for %d+ words.", r.WordCount, MinWords))
	}
	if !r.Meta.Valid {
		r.Recommendations = append(r.Recommendations, "Meta description issue: "+r.Meta.Issue)
	}
	if !r.Title.Valid {
		r.Recommendations = append(r.Recommendations, "Title issue: "+r.Title.Issue)
	}
	var low []string
	for _, k := range keywords {
		if d, ok := r.Densities[k]; ok && d < DensityMin && len(low) < maxUnderused {
			low = append(low, k)
		}
	}
	if len(low) > 0 {
		r.Recommendations = append(r.Recommendations, "Keywords underused: "+strings.Join(low, ", "))
	}
	r.Recommendations = append(r.Recommendations, r.Headings.Recommendations...)
	r.Score = score(r)
	log.Info().Int("seo_score", r.Score).Int("words", r.WordCount).Msg("seo analysis complete")
	return r
}

// CountWords counts word-character runs.
func CountWords(text string) int {
	return len(wordRe.FindAllString(text, -1))
}

// Densities maps each keyword to occurrences over total words, rounded to
// four decimals.
func Densities(text string, keywords []string) map[string]float64 {
	out := map[string]float64{}
	lower := strings.ToLower(text)
	total := CountWords(lower)
	if total == 0 {
		return out
	}
	for _, k := range keywords {
		d := float64(strings.Count(lower, strings.ToLower(k))) / float64(total)
		out[k] = math.Round(d*1e4) / 1e4
	}
	return out
}

func checkMeta(meta string) LengthCheck {
	n := utf8.RuneCountInString(meta)
	c := LengthCheck{Length: n, Valid: n >= MetaMin && n <= MetaMax}
	switch {
	case n < MetaMin:
		c.Issue = fmt.Sprintf("Too short (minimum %d chars)", MetaMin)
	case n > MetaMax:
		c.Issue = fmt.Sprintf("Too long (maximum %d chars, will be truncated)", MetaMax)
	}
	return c
}

func checkTitle(title string) LengthCheck {
	n := utf8.RuneCountInString(title)
	c := LengthCheck{Length: n, Valid: n <= TitleMax}
	if !c.Valid {
		c.Issue = fmt.Sprintf("Too long (maximum %d chars for optimal SEO)", TitleMax)
	}
	return c
}

func checkHeadings(a article.Article) Headings {
	h := Headings{HasH1: strings.TrimSpace(a.Title) != "", H2Count: len(a.Sections), Valid: true}
	if !h.HasH1 {
		h.Valid = false
		h.Recommendations = append(h.Recommendations, "Add an H1 title")
	}
	switch {
	case h.H2Count < MinSections:
		h.Recommendations = append(h.Recommendations, "Add more H2 sections (3-5 recommended)")
	case h.H2Count > MaxSections:
		h.Recommendations = append(h.Recommendations, "Consider consolidating sections (3-7 H2s optimal)")
	}
	return h
}

// Grade rates text as easy, medium or complex.
func Grade(text string) Readability {
	sentences := clean.Sentences(text)
	words := wordRe.FindAllString(text, -1)
	if len(sentences) == 0 || len(words) == 0 {
		return Readability{Level: "unknown"}
	}
	chars := 0
	for _, w := range words {
		chars += utf8.RuneCountInString(w)
	}
	avgSentence := float64(len(words)) / float64(len(sentences))
	avgWord := float64(chars) / float64(len(words))
	level := "complex"
	switch {
	case avgSentence < 15 && avgWord < 5:
		level = "easy"
	case avgSentence < 20 && avgWord < 6:
		level = "medium"
	}
	return Readability{
		AvgSentenceLength: math.Round(avgSentence*10) / 10,
		AvgWordLength:     math.Round(avgWord*10) / 10,
		Level:             level,
	}
}

// score awards 20 for the meta description, 15 for the title, 15 for the
// outline, up to 25 for length and up to 25 for keyword use.
func score(r Report) int {
	s := 0
	if r.Meta.Valid {
		s += 20
	}
	if r.Title.Valid {
		s += 15
	}
	if r.Headings.Valid && r.Headings.H2Count >= MinSections && r.Headings.H2Count <= MaxSections {
		s += 15
	}
	switch {
	case r.WordCount >= 800:
		s += 25
	case r.WordCount >= 500:
		s += 15
	case r.WordCount >= MinWords:
		s += 10
	}
	if len(r.Densities) > 0 {
		good := 0
		for _, d := range r.Densities {
			if d >= DensityMin && d <= DensityMax {
				good++
			}
		}
		s += good * 25 / len(r.Densities)
	}
	if s > 100 {
		s = 100
	}
	return s
}

// Package pipeline wires the stages that turn a page URL into a scored blog
// article. A run is sequential; distinct runs share no mutable state.
package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/article"
	"github.com/hyperifyio/blogforge/internal/budget"
	"github.com/hyperifyio/blogforge/internal/clean"
	"github.com/hyperifyio/blogforge/internal/extract"
	"github.com/hyperifyio/blogforge/internal/images"
	"github.com/hyperifyio/blogforge/internal/keywords"
	"github.com/hyperifyio/blogforge/internal/llm"
	"github.com/hyperifyio/blogforge/internal/prompt"
	"github.com/hyperifyio/blogforge/internal/seo"
	"github.com/hyperifyio/blogforge/internal/topics"
	"github.com/hyperifyio/blogforge/internal/validate"
)

// Stage labels used in StageError.
const (
	StageValidation = "validation"
	StageExtraction = "extraction"
	StageCleaning   = "cleaning"
	StageGeneration = "generation"
	StageEnrichment = "enrichment"
)

// ErrEmptyContent indicates that cleaning left nothing to write about.
var ErrEmptyContent = errors.New("no usable content found after cleaning")

// StageError attributes a fatal failure to the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Request is one generation job.
type Request struct {
	URL       string `json:"url"`
	Tone      string `json:"tone,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
}

// Post is the generated article with its enrichment and analysis.
type Post struct {
	article.Article
	FeaturedImage    *images.Image  `json:"featured_image"`
	AdditionalImages []images.Image `json:"additional_images"`
	SEO              seo.Report     `json:"seo"`
}

// Source summarises the page the article was written from.
type Source struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Authors     []string   `json:"authors,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Method      string     `json:"extraction_method"`
	Truncated   bool       `json:"truncated,omitempty"`
}

// Response is the outcome of a run. On failure only Success, Error, RunID
// and ProcessingTime are set.
type Response struct {
	Success        bool             `json:"success"`
	Article        *Post            `json:"article,omitempty"`
	Keywords       *keywords.Result `json:"keyword_summary,omitempty"`
	Analysis       *topics.Analysis `json:"topic_summary,omitempty"`
	Source         *Source          `json:"source,omitempty"`
	WordCount      int              `json:"word_count"`
	ProcessingTime float64          `json:"processing_time"`
	GeneratedAt    time.Time        `json:"generated_at"`
	RunID          string           `json:"run_id"`
	Error          string           `json:"error,omitempty"`
}

// URLValidator accepts or rejects a source URL. *validate.URLValidator
// satisfies it.
type URLValidator interface {
	Validate(ctx context.Context, url string) (string, error)
}

// Extractor turns a URL into source text. *extract.FallbackExtractor
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, url string) (extract.SourceDocument, error)
}

// Generator produces a structured article. *generate.Generator satisfies it.
type Generator interface {
	GenerateStructured(ctx context.Context, prompt string) (article.Article, error)
}

// ImageSource finds illustrations. *images.Fetcher satisfies it.
type ImageSource interface {
	Featured(ctx context.Context, keywords []string) (*images.Image, error)
	Search(ctx context.Context, keywords []string, n int) ([]images.Image, error)
}

// Publisher hands finished responses to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, resp Response) error
}

// Pipeline holds the stage implementations. Images and Publisher are
// optional.
type Pipeline struct {
	Validator URLValidator
	Extractor Extractor
	Cleaner   clean.Cleaner
	Keywords  keywords.Extractor
	Generator Generator
	Images    ImageSource
	Publisher Publisher
	// Model is only used to warn about prompts that may not fit its window.
	Model string

	now func() time.Time
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Run executes every stage for req. Critical failures return a
// *StageError together with a failed Response. Image lookup failures are
// logged and leave the article without images; a context cancelled after
// generation still fails the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (Response, error) {
	start := p.clock()
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Str("url", req.URL).Logger()
	ctx = logger.WithContext(ctx)

	resp, err := p.run(ctx, &logger, req)
	resp.RunID = runID
	resp.ProcessingTime = math.Round(p.clock().Sub(start).Seconds()*100) / 100
	if err != nil {
		logger.Error().Err(err).Float64("seconds", resp.ProcessingTime).Msg("blog generation failed")
		return Response{Success: false, Error: err.Error(), RunID: runID, ProcessingTime: resp.ProcessingTime}, err
	}
	resp.Success = true
	resp.GeneratedAt = p.clock().UTC()
	logger.Info().Float64("seconds", resp.ProcessingTime).Int("seo_score", resp.Article.SEO.Score).Msg("blog generation completed")
	if p.Publisher != nil {
		if perr := p.Publisher.Publish(ctx, resp); perr != nil {
			logger.Warn().Err(perr).Msg("publishing failed")
		}
	}
	return resp, nil
}

// Draft is everything gathered before the provider is called.
type Draft struct {
	URL       string
	Tone      string
	WordCount int
	Source    extract.SourceDocument
	Text      string
	Keywords  keywords.Result
	Analysis  topics.Analysis
	Prompt    string
}

// Prepare runs the local stages, validation through prompt building, without
// contacting the provider. Dry runs stop here.
func (p *Pipeline) Prepare(ctx context.Context, req Request) (Draft, error) {
	logger := log.With().Str("url", req.URL).Logger()
	return p.prepare(ctx, &logger, req)
}

func (p *Pipeline) prepare(ctx context.Context, logger *zerolog.Logger, req Request) (Draft, error) {
	fail := func(stage string, err error) (Draft, error) {
		return Draft{}, &StageError{Stage: stage, Err: err}
	}

	logger.Info().Msg("step 1/9: validating request")
	tone, words, err := validate.Options(req.Tone, req.WordCount)
	if err != nil {
		return fail(StageValidation, err)
	}
	url := strings.TrimSpace(req.URL)
	if p.Validator != nil {
		if url, err = p.Validator.Validate(ctx, url); err != nil {
			return fail(StageValidation, err)
		}
	} else if _, err := validate.CheckURL(url); err != nil {
		return fail(StageValidation, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageExtraction, err)
	}
	logger.Info().Msg("step 2/9: extracting content")
	doc, err := p.Extractor.Extract(ctx, url)
	if err != nil {
		return fail(StageExtraction, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageCleaning, err)
	}
	logger.Info().Msg("step 3/9: cleaning text")
	text := p.Cleaner.Clean(doc.Text)
	if text == "" {
		return fail(StageCleaning, ErrEmptyContent)
	}

	logger.Info().Msg("step 4/9: extracting keywords")
	kw := p.Keywords.Extract(text)

	logger.Info().Msg("step 5/9: analysing topics")
	analysis := topics.Analyze(text, doc.Title, kw.Primary)

	logger.Info().Msg("step 6/9: building prompt")
	pr := prompt.Build(prompt.Input{
		URL:               url,
		Title:             doc.Title,
		Summary:           analysis.Summary,
		Intent:            string(analysis.Intent),
		PrimaryKeywords:   kw.Primary,
		SecondaryKeywords: kw.Secondary,
		Topics:            analysis.Topics,
		Tone:              tone,
		WordCount:         words,
	})
	if p.Model != "" && !budget.FitsInContext(p.Model, llm.DefaultMaxTokens, budget.EstimateTokens(pr)) {
		logger.Warn().Str("model", p.Model).Int("prompt_tokens", budget.EstimateTokens(pr)).Msg("prompt may exceed the model context window")
	}
	return Draft{
		URL:       url,
		Tone:      tone,
		WordCount: words,
		Source:    doc,
		Text:      text,
		Keywords:  kw,
		Analysis:  analysis,
		Prompt:    pr,
	}, nil
}

func (p *Pipeline) run(ctx context.Context, logger *zerolog.Logger, req Request) (Response, error) {
	d, err := p.prepare(ctx, logger, req)
	if err != nil {
		return Response{}, err
	}

	if err := ctx.Err(); err != nil {
		return Response{}, &StageError{Stage: StageGeneration, Err: err}
	}
	logger.Info().Msg("step 7/9: generating article")
	art, err := p.Generator.GenerateStructured(ctx, d.Prompt)
	if err != nil {
		return Response{}, &StageError{Stage: StageGeneration, Err: err}
	}

	post := &Post{Article: art, AdditionalImages: []images.Image{}}
	if err := ctx.Err(); err != nil {
		return Response{}, &StageError{Stage: StageEnrichment, Err: err}
	}
	if p.Images != nil {
		logger.Info().Msg("step 8/9: fetching images")
		p.enrich(ctx, logger, post, d.Keywords.Primary)
		if err := ctx.Err(); err != nil {
			return Response{}, &StageError{Stage: StageEnrichment, Err: err}
		}
	}

	logger.Info().Msg("step 9/9: scoring for search")
	all := append(append([]string{}, d.Keywords.Primary...), d.Keywords.Secondary...)
	post.SEO = seo.Analyze(art, all)

	doc := d.Source
	return Response{
		Article:   post,
		Keywords:  &d.Keywords,
		Analysis:  &d.Analysis,
		Source:    &Source{URL: doc.URL, Title: doc.Title, Authors: doc.Authors, PublishDate: doc.PublishDate, Method: doc.Method, Truncated: doc.Truncated},
		WordCount: post.SEO.WordCount,
	}, nil
}

func (p *Pipeline) enrich(ctx context.Context, logger *zerolog.Logger, post *Post, kws []string) {
	featured, err := p.Images.Featured(ctx, kws)
	if err != nil {
		logImageError(logger, err)
		return
	}
	more, err := p.Images.Search(ctx, kws, images.AdditionalImages)
	if err != nil {
		logImageError(logger, err)
		return
	}
	post.FeaturedImage = featured
	if more != nil {
		post.AdditionalImages = more
	}
}

func logImageError(logger *zerolog.Logger, err error) {
	var ee *images.EnrichmentError
	if errors.As(err, &ee) {
		logger.Warn().Err(ee.Err).Str("query", ee.Query).Msg("image lookup failed; continuing without images")
		return
	}
	logger.Warn().Err(err).Msg("image lookup failed; continuing without images")
}

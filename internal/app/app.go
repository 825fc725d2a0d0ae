package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/blogforge/internal/budget"
	"github.com/hyperifyio/blogforge/internal/cache"
	"github.com/hyperifyio/blogforge/internal/clean"
	"github.com/hyperifyio/blogforge/internal/extract"
	"github.com/hyperifyio/blogforge/internal/fetch"
	"github.com/hyperifyio/blogforge/internal/generate"
	"github.com/hyperifyio/blogforge/internal/images"
	"github.com/hyperifyio/blogforge/internal/llm"
	"github.com/hyperifyio/blogforge/internal/pipeline"
	"github.com/hyperifyio/blogforge/internal/publish"
	"github.com/hyperifyio/blogforge/internal/robots"
	"github.com/hyperifyio/blogforge/internal/server"
	"github.com/hyperifyio/blogforge/internal/validate"
)

// App owns the long-lived clients and the assembled pipeline.
type App struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	producer *publish.Producer
}

// New builds every component from cfg. Unless DryRun is set it checks the
// LLM endpoint by listing models; an unreachable endpoint is only a warning.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		transportCfg.BaseURL = cfg.LLMBaseURL
	}
	// Generation may run for minutes; only the caller's context bounds it.
	transportCfg.HTTPClient = newHTTPClient(0)
	client := openai.NewClientWithConfig(transportCfg)

	a := &App{cfg: cfg}

	var httpCache *cache.HTTPCache
	var llmCache *cache.LLMCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				return nil, fmt.Errorf("clear cache: %w", err)
			}
		}
		httpDir := filepath.Join(cfg.CacheDir, "http")
		llmDir := filepath.Join(cfg.CacheDir, "llm")
		if cfg.CacheMaxAge > 0 {
			// Purge errors must not block startup
			_, _ = cache.PurgeHTTP(httpDir, cfg.CacheMaxAge)
			_, _ = cache.PurgeLLM(llmDir, cfg.CacheMaxAge)
		}
		httpCache = &cache.HTTPCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		llmCache = &cache.LLMCache{Dir: llmDir, StrictPerms: cfg.CacheStrictPerms}
	}

	shared := newHTTPClient(cfg.RequestTimeout)
	pages := &fetch.Client{
		HTTPClient:        shared,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       2,
		PerRequestTimeout: cfg.RequestTimeout,
		Cache:             httpCache,
		MaxAge:            cfg.CacheMaxAge,
	}
	desktop := &fetch.Client{
		HTTPClient:        shared,
		UserAgent:         fetch.DesktopUserAgent,
		MaxAttempts:       1,
		PerRequestTimeout: cfg.RequestTimeout,
	}

	validator := &validate.URLValidator{}
	if !cfg.SkipProbe {
		// Probe as a browser so pages that refuse bots still reach the
		// markup strategy.
		validator.Prober = desktop
	}
	if cfg.RespectRobots {
		validator.Robots = &robots.Checker{
			Manager:   &robots.Manager{HTTPClient: shared, Cache: httpCache, UserAgent: cfg.UserAgent},
			UserAgent: cfg.UserAgent,
		}
	}

	p := &pipeline.Pipeline{
		Validator: validator,
		Extractor: &extract.FallbackExtractor{
			Primary:          extract.ReadabilityStrategy{Fetcher: pages},
			Fallback:         extract.MarkupStrategy{Fetcher: desktop},
			MaxContentLength: cfg.MaxContentLength,
		},
		Cleaner: clean.Cleaner{Aggressive: cfg.AggressiveClean},
		Generator: &generate.Generator{Invoker: &llm.Invoker{Provider: &llm.ChatProvider{
			Client: &llm.OpenAIProvider{Inner: client},
			Model:  cfg.LLMModel,
			Cache:  llmCache,
		}}},
		Model: cfg.LLMModel,
	}
	if cfg.UnsplashAccessKey != "" {
		p.Images = &images.Fetcher{HTTPClient: shared, AccessKey: cfg.UnsplashAccessKey}
	} else {
		log.Info().Msg("UNSPLASH_ACCESS_KEY not set; articles will have no images")
	}
	if cfg.KafkaBrokers != "" && cfg.KafkaTopic != "" {
		a.producer = publish.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		p.Publisher = a.producer
	}
	a.pipeline = p

	if !cfg.DryRun {
		preflight(ctx, &llm.OpenAIProvider{Inner: client}, cfg.LLMModel)
	}
	return a, nil
}

// preflight lists models to surface connectivity problems early and reports
// whether the configured model was listed. It never fails; generation will
// report errors on its own.
func preflight(ctx context.Context, lister llm.ModelLister, model string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return false
	}
	found := false
	for _, m := range models.Models {
		if m.ID == model {
			found = true
			break
		}
	}
	switch {
	case len(models.Models) == 0:
		log.Warn().Msg("LLM returned zero models")
	case !found:
		log.Warn().Str("model", model).Int("count", len(models.Models)).Msg("configured model not listed by LLM endpoint")
	default:
		log.Info().Int("count", len(models.Models)).Str("model", model).Msg("LLM models available")
	}
	return found
}

// Close releases the Kafka writer when one was opened.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			log.Warn().Err(err).Msg("close kafka producer")
		}
	}
}

// Pipeline exposes the assembled pipeline.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Generate runs one request through the pipeline.
func (a *App) Generate(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
	return a.pipeline.Run(ctx, req)
}

// DryRun performs every local stage and returns the prompt that would be sent
// together with a cost forecast for it.
func (a *App) DryRun(ctx context.Context, req pipeline.Request) (pipeline.Draft, budget.Estimate, error) {
	d, err := a.pipeline.Prepare(ctx, req)
	if err != nil {
		return pipeline.Draft{}, budget.Estimate{}, err
	}
	return d, budget.EstimateCost(len(d.Prompt), d.WordCount, a.cfg.PricePer1K), nil
}

// Estimate forecasts the cost of an article of words using the typical
// prompt size.
func (a *App) Estimate(words int) budget.Estimate {
	return budget.EstimateCost(budget.DefaultPromptChars, words, a.cfg.PricePer1K)
}

// Server returns the HTTP API bound to this app.
func (a *App) Server() *server.Server {
	s := &server.Server{
		Runner:     a.pipeline,
		Model:      a.cfg.LLMModel,
		Version:    BuildVersion,
		PricePer1K: a.cfg.PricePer1K,
	}
	if a.cfg.RateLimitRPS > 0 {
		s.Limiter = server.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst)
		// ValidateConfig already rejected malformed entries.
		s.Limiter.TrustedProxies, _ = server.ParseTrustedProxies(a.cfg.TrustedProxies)
	}
	return s
}

// Serve runs the HTTP API until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	s := a.Server()
	if s.Limiter != nil {
		go s.Limiter.Run(ctx, time.Minute)
	}
	return server.ListenAndServe(ctx, a.cfg.Addr, s.Handler())
}

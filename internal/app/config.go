package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/blogforge/internal/server"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Request
	URL        string
	Tone       string
	WordCount  int
	OutputPath string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	PricePer1K float64

	// Extraction
	MaxContentLength int
	RequestTimeout   time.Duration
	UserAgent        string
	AggressiveClean  bool
	SkipProbe        bool
	RespectRobots    bool

	// Images
	UnsplashAccessKey string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Publishing
	KafkaBrokers string
	KafkaTopic   string

	// Server
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies string

	// Behavior
	DryRun  bool
	Verbose bool
}

const (
	DefaultAddr             = ":8000"
	DefaultUserAgent        = "blogforge/1.0 (+https://github.com/hyperifyio/blogforge)"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultCacheDir         = ".blogforge-cache"
	DefaultMaxContentLength = 10000
	DefaultRateLimitRPS     = 1.0
	DefaultRateLimitBurst   = 5
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Tone:             "professional",
		WordCount:        800,
		MaxContentLength: DefaultMaxContentLength,
		RequestTimeout:   DefaultRequestTimeout,
		UserAgent:        DefaultUserAgent,
		CacheDir:         DefaultCacheDir,
		Addr:             DefaultAddr,
		RateLimitRPS:     DefaultRateLimitRPS,
		RateLimitBurst:   DefaultRateLimitBurst,
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// For dry-run, LLM settings may be omitted.
func ValidateConfig(cfg Config) error {
	if !cfg.DryRun && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	if cfg.MaxContentLength < 0 || cfg.WordCount < 0 || cfg.RateLimitBurst < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.RequestTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.RateLimitRPS < 0 || cfg.PricePer1K < 0 {
		return errors.New("config: negative rates are not allowed")
	}
	if _, err := server.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if (strings.TrimSpace(cfg.KafkaBrokers) == "") != (strings.TrimSpace(cfg.KafkaTopic) == "") {
		return errors.New("config: kafka.brokers and kafka.topic must be set together")
	}
	return nil
}

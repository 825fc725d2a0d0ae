package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Tone      string `yaml:"tone" json:"tone"`
	WordCount int    `yaml:"wordCount" json:"wordCount"`
	Output    string `yaml:"output" json:"output"`

	LLM struct {
		BaseURL    string  `yaml:"base" json:"base"`
		Model      string  `yaml:"model" json:"model"`
		APIKey     string  `yaml:"key" json:"key"`
		PricePer1K float64 `yaml:"pricePer1K" json:"pricePer1K"`
	} `yaml:"llm" json:"llm"`

	Extract struct {
		MaxContentLength int           `yaml:"maxContentLength" json:"maxContentLength"`
		Timeout          time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent        string        `yaml:"userAgent" json:"userAgent"`
		Aggressive       bool          `yaml:"aggressive" json:"aggressive"`
		SkipProbe        bool          `yaml:"skipProbe" json:"skipProbe"`
		RespectRobots    bool          `yaml:"respectRobots" json:"respectRobots"`
	} `yaml:"extract" json:"extract"`

	Unsplash struct {
		AccessKey string `yaml:"accessKey" json:"accessKey"`
	} `yaml:"unsplash" json:"unsplash"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Kafka struct {
		Brokers string `yaml:"brokers" json:"brokers"`
		Topic   string `yaml:"topic" json:"topic"`
	} `yaml:"kafka" json:"kafka"`

	Server struct {
		Addr           string  `yaml:"addr" json:"addr"`
		RateLimitRPS   float64 `yaml:"rateLimitRPS" json:"rateLimitRPS"`
		RateLimitBurst int     `yaml:"rateLimitBurst" json:"rateLimitBurst"`
		TrustedProxies string  `yaml:"trustedProxies" json:"trustedProxies"`
	} `yaml:"server" json:"server"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc onto cfg wherever cfg still holds
// the zero value or the built-in default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	def := Defaults()

	if (cfg.Tone == "" || cfg.Tone == def.Tone) && fc.Tone != "" { cfg.Tone = fc.Tone }
	if (cfg.WordCount == 0 || cfg.WordCount == def.WordCount) && fc.WordCount > 0 { cfg.WordCount = fc.WordCount }
	if cfg.OutputPath == "" && fc.Output != "" { cfg.OutputPath = fc.Output }

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
	if cfg.LLMModel == "" && fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }
	if cfg.PricePer1K == 0 && fc.LLM.PricePer1K > 0 { cfg.PricePer1K = fc.LLM.PricePer1K }

	if (cfg.MaxContentLength == 0 || cfg.MaxContentLength == def.MaxContentLength) && fc.Extract.MaxContentLength > 0 { cfg.MaxContentLength = fc.Extract.MaxContentLength }
	if (cfg.RequestTimeout == 0 || cfg.RequestTimeout == def.RequestTimeout) && fc.Extract.Timeout > 0 { cfg.RequestTimeout = fc.Extract.Timeout }
	if (cfg.UserAgent == "" || cfg.UserAgent == def.UserAgent) && fc.Extract.UserAgent != "" { cfg.UserAgent = fc.Extract.UserAgent }
	if !cfg.AggressiveClean && fc.Extract.Aggressive { cfg.AggressiveClean = true }
	if !cfg.SkipProbe && fc.Extract.SkipProbe { cfg.SkipProbe = true }
	if !cfg.RespectRobots && fc.Extract.RespectRobots { cfg.RespectRobots = true }

	if cfg.UnsplashAccessKey == "" && fc.Unsplash.AccessKey != "" { cfg.UnsplashAccessKey = fc.Unsplash.AccessKey }

	if (cfg.CacheDir == "" || cfg.CacheDir == def.CacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
	if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

	if cfg.KafkaBrokers == "" && fc.Kafka.Brokers != "" { cfg.KafkaBrokers = fc.Kafka.Brokers }
	if cfg.KafkaTopic == "" && fc.Kafka.Topic != "" { cfg.KafkaTopic = fc.Kafka.Topic }

	if (cfg.Addr == "" || cfg.Addr == def.Addr) && fc.Server.Addr != "" { cfg.Addr = fc.Server.Addr }
	if (cfg.RateLimitRPS == 0 || cfg.RateLimitRPS == def.RateLimitRPS) && fc.Server.RateLimitRPS > 0 { cfg.RateLimitRPS = fc.Server.RateLimitRPS }
	if (cfg.RateLimitBurst == 0 || cfg.RateLimitBurst == def.RateLimitBurst) && fc.Server.RateLimitBurst > 0 { cfg.RateLimitBurst = fc.Server.RateLimitBurst }
	if cfg.TrustedProxies == "" && fc.Server.TrustedProxies != "" { cfg.TrustedProxies = fc.Server.TrustedProxies }

	if !cfg.DryRun && fc.DryRun { cfg.DryRun = true }
	if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

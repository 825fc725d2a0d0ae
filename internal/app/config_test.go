package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_YAMLAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogforge.yaml")
	body := `
tone: casual
wordCount: 1200
llm:
  base: http://localhost:8081/v1
  model: file-model
extract:
  maxContentLength: 4000
  timeout: 10s
cache:
  dir: /tmp/bf
  maxAge: 24h
kafka:
  brokers: localhost:9092
  topic: articles
server:
  addr: ":9000"
  rateLimitBurst: 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Defaults()
	cfg.WordCount = 500 // explicit flag value wins over file
	ApplyFileConfig(&cfg, fc)

	if cfg.Tone != "casual" || cfg.WordCount != 500 {
		t.Fatalf("tone/words: %q %d", cfg.Tone, cfg.WordCount)
	}
	if cfg.LLMModel != "file-model" || cfg.LLMBaseURL != "http://localhost:8081/v1" {
		t.Fatalf("llm: %+v", cfg)
	}
	if cfg.MaxContentLength != 4000 || cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("extract: %d %v", cfg.MaxContentLength, cfg.RequestTimeout)
	}
	if cfg.CacheDir != "/tmp/bf" || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("cache: %q %v", cfg.CacheDir, cfg.CacheMaxAge)
	}
	if cfg.Addr != ":9000" || cfg.RateLimitBurst != 2 || cfg.KafkaTopic != "articles" {
		t.Fatalf("server/kafka: %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{"llm":{"model":"m"},"dryRun":true}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.LLM.Model != "m" || !fc.DryRun {
		t.Fatalf("unexpected file config: %+v", fc)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := Defaults()
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected missing model to fail")
	}
	cfg.DryRun = true
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("dry run needs no model: %v", err)
	}
	cfg.DryRun = false
	cfg.LLMModel = "m"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.KafkaBrokers = "localhost:9092"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected brokers without topic to fail")
	}
	cfg.KafkaTopic = "t"
	cfg.MaxContentLength = -1
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected negative limit to fail")
	}
}

func TestValidateConfig_TrustedProxies(t *testing.T) {
	cfg := Defaults()
	cfg.DryRun = true
	cfg.TrustedProxies = "10.0.0.0/8, 127.0.0.1"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.TrustedProxies = "proxy.internal"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected hostnames to be rejected")
	}
}

package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file and before explicit flags, so env beats
// file and flags beat env.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.UnsplashAccessKey, "UNSPLASH_ACCESS_KEY")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	setString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setString(&cfg.UserAgent, "USER_AGENT")
	setString(&cfg.Addr, "ADDR")
	setString(&cfg.TrustedProxies, "TRUSTED_PROXIES")

	setInt := func(dst *int, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	setInt(&cfg.MaxContentLength, "MAX_CONTENT_LENGTH")
	setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")

	setFloat := func(dst *float64, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
				*dst = f
			}
		}
	}
	setFloat(&cfg.RateLimitRPS, "RATE_LIMIT_RPS")
	setFloat(&cfg.PricePer1K, "LLM_PRICE_PER_1K")

	setDuration := func(dst *time.Duration, key string) {
		if d, ok := parseDurationOrSeconds(os.Getenv(key)); ok {
			*dst = d
		}
	}
	setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.RespectRobots, "RESPECT_ROBOTS")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// parseDurationOrSeconds accepts Go durations ("45s", "2m") and bare
// integers, which are read as seconds.
func parseDurationOrSeconds(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, true
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d, true
	}
	return 0, false
}

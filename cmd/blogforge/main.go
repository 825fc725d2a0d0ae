// Command blogforge turns a webpage into a structured, search-optimised blog
// article. It runs one-off generations, serves the HTTP API and maintains
// the on-disk cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/blogforge/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// options collects what the persistent flags describe. flags holds values
// bound to command-line flags; only flags the user changed are applied.
type options struct {
	configPath string
	envFiles   []string
	flags      app.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{flags: app.Defaults()}
	root := &cobra.Command{
		Use:           "blogforge",
		Short:         "Turn a webpage into a structured blog article",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to YAML or JSON config file")
	pf.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load (later files win)")
	pf.BoolVarP(&opts.flags.Verbose, "verbose", "v", false, "Verbose logging")
	pf.BoolVar(&opts.flags.DryRun, "dry-run", false, "Run local stages only; do not call the model")
	pf.StringVar(&opts.flags.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	pf.StringVar(&opts.flags.LLMModel, "llm.model", "", "Model name")
	pf.StringVar(&opts.flags.LLMAPIKey, "llm.key", "", "API key for OpenAI-compatible server")
	pf.Float64Var(&opts.flags.PricePer1K, "llm.pricePer1K", 0, "USD per 1000 tokens for cost estimates (0 uses the built-in default)")
	pf.StringVar(&opts.flags.CacheDir, "cache.dir", app.DefaultCacheDir, "Cache directory path (empty disables caching)")
	pf.DurationVar(&opts.flags.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries; older entries are purged at startup (0 disables)")
	pf.BoolVar(&opts.flags.CacheClear, "cache.clear", false, "Clear cache directory before run")
	pf.BoolVar(&opts.flags.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")

	root.AddCommand(
		newGenerateCmd(opts),
		newServeCmd(opts),
		newEstimateCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves configuration with precedence flags > env > file >
// defaults and configures the log level.
func (o *options) loadConfig(cmd *cobra.Command) (app.Config, error) {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}
	cfg := app.Defaults()
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	o.applyChangedFlags(cmd.Flags(), &cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, nil
}

func (o *options) applyChangedFlags(fs *pflag.FlagSet, cfg *app.Config) {
	f := o.flags
	setters := map[string]func(){
		"verbose":            func() { cfg.Verbose = f.Verbose },
		"dry-run":            func() { cfg.DryRun = f.DryRun },
		"llm.base":           func() { cfg.LLMBaseURL = f.LLMBaseURL },
		"llm.model":          func() { cfg.LLMModel = f.LLMModel },
		"llm.key":            func() { cfg.LLMAPIKey = f.LLMAPIKey },
		"llm.pricePer1K":     func() { cfg.PricePer1K = f.PricePer1K },
		"cache.dir":          func() { cfg.CacheDir = f.CacheDir },
		"cache.maxAge":       func() { cfg.CacheMaxAge = f.CacheMaxAge },
		"cache.clear":        func() { cfg.CacheClear = f.CacheClear },
		"cache.strictPerms":  func() { cfg.CacheStrictPerms = f.CacheStrictPerms },
		"url":                func() { cfg.URL = f.URL },
		"tone":               func() { cfg.Tone = f.Tone },
		"words":              func() { cfg.WordCount = f.WordCount },
		"out":                func() { cfg.OutputPath = f.OutputPath },
		"max-content-length": func() { cfg.MaxContentLength = f.MaxContentLength },
		"timeout":            func() { cfg.RequestTimeout = f.RequestTimeout },
		"user-agent":         func() { cfg.UserAgent = f.UserAgent },
		"aggressive":         func() { cfg.AggressiveClean = f.AggressiveClean },
		"skip-probe":         func() { cfg.SkipProbe = f.SkipProbe },
		"respect-robots":     func() { cfg.RespectRobots = f.RespectRobots },
		"addr":               func() { cfg.Addr = f.Addr },
		"rate-limit-rps":     func() { cfg.RateLimitRPS = f.RateLimitRPS },
		"rate-limit-burst":   func() { cfg.RateLimitBurst = f.RateLimitBurst },
		"trusted-proxies":    func() { cfg.TrustedProxies = f.TrustedProxies },
	}
	fs.Visit(func(fl *pflag.Flag) {
		if set, ok := setters[fl.Name]; ok {
			set()
		}
	})
}

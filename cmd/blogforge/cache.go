package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/blogforge/internal/cache"
)

func newCacheCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the on-disk page and completion cache",
	}
	root.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove entries older than --cache.maxAge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.CacheDir == "" {
				return errors.New("cache directory is not configured")
			}
			if cfg.CacheMaxAge <= 0 {
				return errors.New("--cache.maxAge must be positive")
			}
			pages, err := cache.PurgeHTTP(filepath.Join(cfg.CacheDir, "http"), cfg.CacheMaxAge)
			if err != nil {
				return fmt.Errorf("purge pages: %w", err)
			}
			completions, err := cache.PurgeLLM(filepath.Join(cfg.CacheDir, "llm"), cfg.CacheMaxAge)
			if err != nil {
				return fmt.Errorf("purge completions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d pages and %d completions older than %s\n", pages, completions, cfg.CacheMaxAge)
			return nil
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", cfg.CacheDir)
			return nil
		},
	})
	return root
}

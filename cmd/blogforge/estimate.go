package main

import (
	"encoding/json"
	"math"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/blogforge/internal/app"
)

func newEstimateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate token usage and cost of one article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			// Estimates never contact the model.
			cfg.DryRun = true
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			est := a.Estimate(cfg.WordCount)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"url":                cfg.URL,
				"word_count":         cfg.WordCount,
				"prompt_tokens":      est.PromptTokens,
				"output_tokens":      est.OutputTokens,
				"estimated_cost_usd": math.Round(est.CostUSD*1e4) / 1e4,
				"model":              cfg.LLMModel,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.flags.URL, "url", "", "Source webpage URL (informational)")
	f.IntVar(&opts.flags.WordCount, "words", opts.flags.WordCount, "Target article length in words")
	return cmd
}

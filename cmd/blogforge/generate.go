package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/blogforge/internal/app"
	"github.com/hyperifyio/blogforge/internal/export"
	"github.com/hyperifyio/blogforge/internal/pipeline"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one article from a URL",
		Example: `  blogforge generate --url https://example.com/product --tone casual --words 1000 --out post.md
  blogforge generate --url https://example.com --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg, preview)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.flags.URL, "url", "", "Source webpage URL (required)")
	f.StringVar(&opts.flags.Tone, "tone", opts.flags.Tone, "Writing tone: professional, casual, technical or conversational")
	f.IntVar(&opts.flags.WordCount, "words", opts.flags.WordCount, "Target article length in words (300-2000)")
	f.StringVarP(&opts.flags.OutputPath, "out", "o", "", "Output file; .json, .md or .pdf selects the format (default: JSON on stdout)")
	f.IntVar(&opts.flags.MaxContentLength, "max-content-length", opts.flags.MaxContentLength, "Maximum characters of extracted source text")
	f.DurationVar(&opts.flags.RequestTimeout, "timeout", opts.flags.RequestTimeout, "Timeout for page fetches and probes")
	f.StringVar(&opts.flags.UserAgent, "user-agent", opts.flags.UserAgent, "User-Agent for page fetches")
	f.BoolVar(&opts.flags.AggressiveClean, "aggressive", false, "Drop short lines while cleaning source text")
	f.BoolVar(&opts.flags.SkipProbe, "skip-probe", false, "Do not probe the URL before extraction")
	f.BoolVar(&opts.flags.RespectRobots, "respect-robots", false, "Refuse pages that robots.txt disallows")
	f.BoolVar(&preview, "preview", false, "Print the article rendered for the terminal instead of JSON")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg app.Config, preview bool) error {
	if cfg.URL == "" {
		return errors.New("--url is required")
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req := pipeline.Request{URL: cfg.URL, Tone: cfg.Tone, WordCount: cfg.WordCount}
	if cfg.DryRun {
		d, est, err := a.DryRun(cmd.Context(), req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# blogforge (dry run)\n\nSource: %s\nTitle: %s\nExtraction: %s\nIntent: %s\nPrimary keywords: %v\n\n",
			d.URL, d.Source.Title, d.Source.Method, d.Analysis.Intent, d.Keywords.Primary)
		fmt.Fprintf(out, "Estimated prompt tokens: %s\nEstimated output tokens: %s\nEstimated cost (USD): %.4f\n\n",
			humanize.Comma(int64(est.PromptTokens)), humanize.Comma(int64(est.OutputTokens)), est.CostUSD)
		fmt.Fprintf(out, "Prompt (%s chars):\n%s\n", humanize.Comma(int64(len(d.Prompt))), d.Prompt)
		return nil
	}

	resp, err := a.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	log.Info().Str("title", resp.Article.Title).Int("words", resp.WordCount).Int("seo_score", resp.Article.SEO.Score).Msg("article ready")
	if cfg.OutputPath != "" {
		return export.WriteFile(cfg.OutputPath, resp)
	}
	if preview {
		text, err := export.Terminal(resp.Article, 0, "")
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	b, err := export.Render(resp, export.FormatJSON)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

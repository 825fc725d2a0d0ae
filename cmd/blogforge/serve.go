package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperifyio/blogforge/internal/app"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.flags.Addr, "addr", opts.flags.Addr, "Listen address")
	f.Float64Var(&opts.flags.RateLimitRPS, "rate-limit-rps", opts.flags.RateLimitRPS, "Requests per second allowed per client (0 disables limiting)")
	f.IntVar(&opts.flags.RateLimitBurst, "rate-limit-burst", opts.flags.RateLimitBurst, "Burst size per client")
	f.StringVar(&opts.flags.TrustedProxies, "trusted-proxies", "", "Comma-separated proxy IPs or CIDRs whose X-Forwarded-For is honoured")
	f.IntVar(&opts.flags.MaxContentLength, "max-content-length", opts.flags.MaxContentLength, "Maximum characters of extracted source text")
	f.DurationVar(&opts.flags.RequestTimeout, "timeout", opts.flags.RequestTimeout, "Timeout for page fetches and probes")
	f.BoolVar(&opts.flags.SkipProbe, "skip-probe", false, "Do not probe URLs before extraction")
	f.BoolVar(&opts.flags.RespectRobots, "respect-robots", false, "Refuse pages that robots.txt disallows")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ersonp/connexions/internal/infrastructure/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serves the relationship, group and user operations over HTTP, with
Prometheus metrics on /metrics. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: http.addr from config)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	return withInternalDeps(ctx, func(d *internalDeps) error {
		httpCfg := d.Config.HTTP
		if addr != "" {
			httpCfg.Addr = addr
		}

		var limiter *httpapi.RateLimiter
		if httpCfg.RateLimit > 0 {
			limiter = httpapi.NewRateLimiter(httpapi.RateLimiterConfig{
				Rate:  rate.Limit(httpCfg.RateLimit),
				Burst: httpCfg.RateBurst,
			}, d.Logger)
			defer limiter.Stop()
		}

		router := httpapi.NewRouter(&httpapi.Deps{
			Relationships: d.Relationships,
			Groups:        d.Groups,
			Profiles:      d.Profiles,
			Users:         d.Users,
			Types:         d.Types,
			Metrics:       d.metrics,
			Gatherer:      d.registry,
			Limiter:       limiter,
			Logger:        d.Logger,
		})

		d.Logger.Info("serving api",
			zap.String("addr", httpCfg.Addr),
			zap.String("driver", d.Config.Storage.Driver),
			zap.Float64("rate_limit", httpCfg.RateLimit),
		)
		return httpapi.NewServer(httpCfg.Addr, router, httpCfg.ShutdownTimeout, d.Logger).ListenAndServe(ctx)
	})
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bumper/internal/server"
	"github.com/matzehuels/bumper/pkg/cache"
	"github.com/matzehuels/bumper/pkg/observability"
	"github.com/matzehuels/bumper/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve version checks over HTTP",
		Long: `Start an HTTP server exposing the check:

  POST /v1/check?write=true   body: package.json
  GET  /healthz
  GET  /metrics               Prometheus metrics

The registry, cache and concurrency settings come from bumper.toml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if noCache {
				cfg.Cache.Backend = cache.BackendNone
			}
			cfg = cfg.WithDefaults()

			runner, err := pipeline.New(ctx, cfg, c.Logger)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := server.New(runner, c.Logger, server.Options{})
			srv.Metrics().Install()
			defer observability.Reset()

			out := c.status()
			out.keyValue("Listening", cfg.Server.Addr)
			out.keyValue("Registry", cfg.Registry)
			out.keyValue("Cache", cfg.Cache.Backend)
			if c.configFile != "" {
				out.keyValue("Config", c.configFile)
			}

			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")

	return cmd
}

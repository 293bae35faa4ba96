package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockglyph/pkg/observability"
	"github.com/matzehuels/blockglyph/pkg/server"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Long: `Serve the render API over HTTP.

  GET  /healthz     liveness and version
  GET  /v1/tables   built-in symbol tables
  GET  /v1/stats    request, transform and cache counters
  POST /v1/render   render the uploaded image (raw body or multipart "image" field)

Render options are query parameters: mode, block_size, glyph_size, table,
format, glow, background, max_width. Defaults come from the config file.`,
		Example: `  blockglyph serve --addr :8080
  curl --data-binary @photo.jpg 'localhost:8080/v1/render?block_size=8&format=png' -o out.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			rec := observability.NewRecorder()
			observability.SetPipelineHooks(rec)
			observability.SetCacheHooks(rec)
			observability.SetHTTPHooks(rec)

			defaults := cfg.options()
			defaults.Logger = c.Logger
			opts := []server.Option{server.WithRecorder(rec), server.WithDefaults(defaults)}
			if cfg.Server.MaxBodyMB > 0 {
				opts = append(opts, server.WithMaxBodyBytes(int64(cfg.Server.MaxBodyMB)<<20))
			}

			c.Logger.Info("starting server", "addr", cfg.Server.Addr, "cache", cfg.Cache.Backend)
			return server.New(runner, c.Logger, opts...).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

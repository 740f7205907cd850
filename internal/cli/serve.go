package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/latex2image/internal/server"
	"github.com/matzehuels/latex2image/pkg/buildinfo"
	"github.com/matzehuels/latex2image/pkg/observability"
	"github.com/matzehuels/latex2image/pkg/queue"
)

// serveCommand creates the serve command that runs the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Run the HTTP conversion service.

The service answers POST /convert, serves produced images under /output/
and hosts a small web UI at /. Compilations run one at a time; other
requests wait in arrival order.`,
		Example: `  latex2image serve
  latex2image serve --listen 127.0.0.1:8080 --sandbox local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			hooks := observability.NewLogHooks(logger)
			observability.SetConversionHooks(hooks)
			observability.SetHTTPHooks(hooks)

			gate := queue.New()
			runner, err := c.newRunner(cfg, gate)
			if err != nil {
				return err
			}

			if err := newExecutor(cfg).Check(ctx); err != nil {
				logger.Warn("sandbox not ready, conversions will fail", "sandbox", cfg.Sandbox.Kind, "err", err)
			}

			logger.Info("starting",
				"version", buildinfo.Short(),
				"listen", cfg.Server.Listen,
				"sandbox", cfg.Sandbox.Kind,
				"output", cfg.Storage.OutputDir)

			srv := server.New(runner, server.Options{
				OutputDir:     cfg.Storage.OutputDir,
				PublicPrefix:  cfg.Storage.PublicPrefix,
				MaxBodyBytes:  cfg.Server.MaxBodyBytes,
				ReadTimeout:   cfg.Server.ReadTimeout,
				ShutdownGrace: cfg.Server.ShutdownGrace,
				Gate:          gate,
			}, logger)
			return srv.ListenAndServe(ctx, cfg.Server.Listen)
		},
	}

	cmd.Flags().String("listen", "", "address to listen on (overrides config)")
	addSandboxFlags(cmd)

	return cmd
}

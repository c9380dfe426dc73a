package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repo-analyzer-client/internal/bootstrap"
	"repo-analyzer-client/internal/shared/config"
	"repo-analyzer-client/internal/shared/telemetry"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := serveConfig(config.Load(), root, cmd.Flags().Changed, port)
			telemetry.SetOutput(cmd.ErrOrStderr(), logLevel(root.verbose))

			app, err := bootstrap.Build(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
	return cmd
}

// serveConfig applies the CLI flags over the environment config. Flags with
// defaults only win when they were set explicitly.
func serveConfig(cfg config.Config, root *rootOptions, changed func(string) bool, port string) config.Config {
	if changed("port") {
		cfg.Port = port
	}
	if changed("timeout") {
		cfg.AnalyzerTimeout = root.timeout
	}
	if root.apiURL != "" {
		cfg.AnalyzerURL = root.apiURL
	}
	if root.token != "" {
		cfg.AnalyzerToken = root.token
	}
	return cfg
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/shared/telemetry"
)

type rootOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "analyzer",
		Short:         "Analyze GitHub repositories from the terminal",
		Long:          "analyzer submits GitHub repositories to the analysis service and renders the overview, resume bullets, viva questions and interview Q&A it returns.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			telemetry.SetOutput(cmd.ErrOrStderr(), logLevel(opts.verbose))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", envOr("ANALYZER_API_URL", "http://localhost:8000"), "Base URL of the analysis service")
	flags.StringVar(&opts.token, "token", os.Getenv("ANALYZER_API_TOKEN"), "Bearer token for the analysis service")
	flags.DurationVar(&opts.timeout, "timeout", 120*time.Second, "Per-request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests to stderr")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newExportCmd(opts),
		newChatCmd(opts),
		newServeCmd(opts),
		newHealthCmd(opts),
	)
	return cmd
}

func (o *rootOptions) client() (*analyzer.Client, error) {
	return analyzer.NewClient(analyzer.Config{
		BaseURL: o.apiURL,
		Token:   o.token,
		Timeout: o.timeout,
	})
}

func logLevel(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	return zapcore.WarnLevel
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// readResult loads an analysis saved with "analyze --save". The backend's
// {success, data} envelope is accepted too.
func readResult(path string) (analyzer.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return analyzer.Result{}, fmt.Errorf("failed to read analysis: %w", err)
	}
	var envelope struct {
		Data *analyzer.Result `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return analyzer.Result{}, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if envelope.Data != nil {
		return *envelope.Data, nil
	}
	var result analyzer.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return analyzer.Result{}, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return result, nil
}

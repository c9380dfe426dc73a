package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"repo-analyzer-client/internal/analyses"
	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/exports"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		focus    string
		asJSON   bool
		saveFile string
	)
	cmd := &cobra.Command{
		Use:   "analyze <repo-url>",
		Short: "Analyze a GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoURL, err := analyses.NormalizeRepoURL(args[0])
			if err != nil {
				return errors.New(analyses.UserMessage(err))
			}
			normalizedFocus, err := analyses.NormalizeFocus(focus)
			if err != nil {
				return errors.New(analyses.UserMessage(err))
			}
			client, err := root.client()
			if err != nil {
				return err
			}

			result, err := client.AnalyzeRepo(cmd.Context(), repoURL, normalizedFocus)
			if err != nil {
				return errors.New(analyzer.UserMessage(err, analyses.MsgAnalysisFailed))
			}

			if saveFile != "" {
				raw, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal analysis: %w", err)
				}
				if err := os.WriteFile(saveFile, raw, 0o644); err != nil {
					return fmt.Errorf("failed to save analysis: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			rendered, err := glamour.Render(exports.BuildMarkdown(result), "auto")
			if err != nil {
				rendered = exports.BuildMarkdown(result)
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		},
	}
	cmd.Flags().StringVarP(&focus, "focus", "f", "all", "Analysis focus: all, resume, interview or viva")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw analysis JSON")
	cmd.Flags().StringVarP(&saveFile, "save", "s", "", "Write the analysis JSON to this file")
	return cmd
}

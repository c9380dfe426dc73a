package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/exports"
	"repo-analyzer-client/internal/extract"
)

const previewChars = 600

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		format  string
		outDir  string
		preview bool
	)
	cmd := &cobra.Command{
		Use:   "export <analysis.json>",
		Short: "Export a saved analysis as text, DOCX or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := exportFormats(format)
			if err != nil {
				return err
			}
			result, err := readResult(args[0])
			if err != nil {
				return err
			}
			client, err := root.client()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, f := range formats {
				f := f
				g.Go(func() error {
					blob, err := exports.Render(ctx, client, f, result)
					if err != nil {
						return fmt.Errorf("%s: %w", exports.FailureMessage(f), err)
					}
					path := filepath.Join(outDir, blob.FileName)
					if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
						return fmt.Errorf("%s: %w", exports.FailureMessage(f), err)
					}

					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(out, "wrote %s (%d bytes)\n", path, len(blob.Data))
					if preview {
						writePreview(ctx, out, blob)
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&format, "format", exports.FormatText, "Export format: txt, docx, pdf or all")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write exports to")
	cmd.Flags().BoolVar(&preview, "preview", false, "Print the start of each exported document's text")
	return cmd
}

func exportFormats(raw string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "all") {
		return exports.Formats, nil
	}
	f, err := exports.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return []string{f}, nil
}

func writePreview(ctx context.Context, out io.Writer, blob analyzer.Blob) {
	text, err := extract.TextFromBytes(ctx, blob.Data, blob.ContentType, blob.FileName)
	if err != nil {
		fmt.Fprintf(out, "  (no preview: %v)\n", err)
		return
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > previewChars {
		runes = append(runes[:previewChars], []rune("...")...)
	}
	fmt.Fprintf(out, "%s\n\n", string(runes))
}

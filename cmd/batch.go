package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/captionkit/captioner/internal/batch"
	"github.com/captionkit/captioner/internal/export"
	"github.com/captionkit/captioner/internal/prompt"
)

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var dir string
	var pattern string
	var output string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate captions for every photo in a directory",
		Long: `Captions every JPEG and PNG file in a directory and writes one row per image
to a Parquet report (filename, format, dimensions, raw model reply, parsed
caption lines, error).

Each image gets a single best-effort model call. Failures are recorded in the
report and do not stop the batch.`,
		Example: `  # Caption a folder with two requests in flight
  captioner batch --dir ./products --output captions.parquet --concurrency 2

  # Include PNGs in every subdirectory
  captioner batch --dir ./products --pattern "**/*.png"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			paths, err := batch.ListImages(dir, pattern)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no JPEG or PNG images found in %s", dir)
			}

			generator, closeGenerator, err := newGenerator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeGenerator(); err != nil {
					slog.Warn("Failed to close provider", "err", err)
				}
			}()

			slog.Info("Starting batch", "dir", dir, "images", len(paths), "provider", cfg.Provider, "model", cfg.Model, "concurrency", concurrency)
			rows, err := batch.NewRunner(generator, prompt.Template, concurrency).Run(cmd.Context(), paths)
			if err != nil {
				return err
			}

			if err := export.SaveParquet(output, rows); err != nil {
				return err
			}

			failed := 0
			for _, row := range rows {
				if row.Error != "" {
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Captioned %d of %d images\nReport saved to: %s\n", len(rows)-failed, len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of product photos (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "*", "Glob (doublestar syntax) selecting images relative to --dir")
	cmd.Flags().StringVar(&output, "output", "captions.parquet", "Path to output Parquet report")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Number of images to caption at once")

	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/captionkit/captioner/internal/export"
	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/prompt"
	"github.com/captionkit/captioner/internal/workflow"
)

func newGenerateCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate IMAGE",
		Short: "Generate caption options for a single product photo",
		Long: `Uploads one JPEG or PNG product photo to the configured model and prints
the caption options it returns, one per line, in the order the model wrote them.`,
		Example: `  # Print captions for a photo
  captioner generate ./shoes.jpg

  # Also save the result as YAML
  captioner generate ./shoes.jpg --output results/shoes.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			img, err := models.NewImage(data, filepath.Base(args[0]))
			if err != nil {
				return fmt.Errorf("invalid image %s: %w", args[0], err)
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

			controller := workflow.New(generator)
			if _, err := controller.Upload(img); err != nil {
				return err
			}
			view, err := controller.Generate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(view.Candidates) == 0 {
				fmt.Fprintln(out, "The model returned no caption text.")
			}
			for _, c := range view.Candidates {
				fmt.Fprintf(out, "[%d] %s\n", c.Index+1, c.Text)
			}

			if output != "" {
				doc := export.NewHistoryDocument(
					export.HistoryMeta{Provider: cfg.Provider, Model: cfg.Model, Prompt: prompt.Template},
					controller.History(),
					time.Now(),
				)
				if err := export.SaveYAML(output, doc); err != nil {
					return err
				}
				slog.Info("Saved captions", "output", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result as YAML to this path")

	return cmd
}

package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/captionkit/captioner/internal/config"
)

type globalOptions struct {
	provider string
	model    string
	verbose  bool
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "captioner",
		Short: "Social media caption generator for product photos",
		Long: `Captioner turns a product photo into three ready-to-post Instagram captions
using a vision-capable LLM (Gemini, OpenAI or Ollama).

Run it as a web API for interactive sessions, caption a single image from the
command line, or caption a whole directory into a Parquet report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if opts.provider != "" {
				return os.Setenv("CAPTION_PROVIDER", opts.provider)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "LLM provider (gemini, openai, or ollama); overrides CAPTION_PROVIDER")
	cmd.PersistentFlags().StringVar(&opts.model, "model", "", "Model name (defaults to provider's default)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))

	return cmd
}

// loadConfig reads the environment, applies flag overrides and installs the
// default logger. Configuration errors are returned unchanged so the command
// fails before doing any work.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}

	level := cfg.LogLevel
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

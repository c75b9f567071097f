package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/captionkit/captioner/internal/export"
	"github.com/captionkit/captioner/internal/handlers"
	"github.com/captionkit/captioner/internal/storage"
	"github.com/captionkit/captioner/internal/workflow"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the caption session API",
		Long: `Starts the Captioner JSON API on the specified port.

Each client creates a session, uploads a product photo, generates captions,
and can copy, regenerate, start over with a new image, or reset. Sessions live
in memory only and expire after SESSION_TTL_MINUTES of inactivity.`,
		Example: `  # Start server on default port 8888
  captioner serve

  # Start server on custom port with OpenAI
  captioner serve --port 3000 --provider openai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
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

			store := storage.New(cfg.SessionTTL, func() *workflow.Controller {
				return workflow.New(generator)
			})
			handler := handlers.New(store, handlers.Options{
				MaxUploadBytes: cfg.MaxUploadBytes,
				ExportMeta:     export.HistoryMeta{Provider: cfg.Provider, Model: cfg.Model},
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Captioner API available", "addr", addr, "url", "http://localhost"+addr, "provider", cfg.Provider, "model", cfg.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}

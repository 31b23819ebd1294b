package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martinsuchenak/circuits/internal/api"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/storage"
	"github.com/paularlott/cli"
)

const shutdownTimeout = 30 * time.Second

var errNoSecret = errors.New("--jwt-secret (or CIRCUITS_JWT_SECRET) is required")

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the circuits server",
		Description: "Start the HTTP server with the login and circuit API endpoints",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			closer, err := cfg.SetupLogging()
			if err != nil {
				return err
			}
			defer closer.Close()

			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr, "db_driver", cfg.DBDriver)

			if !cfg.IsAuthConfigured() {
				log.Error("No token signing secret configured")
				return errNoSecret
			}

			// Initialize storage
			store, err := storage.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN())
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()
			log.Info("Storage initialized", "backend", cfg.DBDriver)

			// Create API handler
			apiHandler := api.NewHandler(store, []byte(cfg.JWTSecret), cfg.TokenTTL)

			// Setup HTTP routes
			mux := http.NewServeMux()
			apiHandler.RegisterRoutes(mux)

			// Apply middleware
			var handler http.Handler = mux
			handler = api.LoggingMiddleware(handler)
			handler = api.SecurityHeadersMiddleware(handler)

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Handle shutdown gracefully
			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
				select {
				case <-sigChan:
				case <-ctx.Done():
				}
				log.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Warn("Forced shutdown", "error", err)
					server.Close()
				}
			}()

			log.Info("Starting circuits server", "addr", cfg.ListenAddr)
			log.Info("API available", "url", "http://localhost"+cfg.ListenAddr+"/api/circuits/all")
			log.Info("Token lifetime", "ttl", cfg.TokenTTL)

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Server error", "error", err)
				return err
			}

			// Let running imports write their final report before the store closes.
			apiHandler.Wait()
			log.Info("Server stopped")
			return nil
		},
	}
}

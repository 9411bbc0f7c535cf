package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/middleware"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe wires every layer together and serves until SIGINT or SIGTERM.
func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// ─── 1. Config ───
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithField("component", "main")
	log.WithField("port", cfg.Server.Port).Info("lectern starting")

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		log.WithError(err).Error("failed to initialize database")
		return err
	}
	defer db.Close()

	// ─── 3. Upload directory ───
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// ─── 4. Repositories, services, hub ───
	repos := initRepositories(db.Conn)

	svcs, limiters, hub, closeStore, err := initServices(ctx, repos, cfg, logger)
	if err != nil {
		log.WithError(err).Error("failed to initialize services")
		return err
	}
	defer closeStore()
	defer limiters.Stop()

	go hub.Run()

	// ─── 5. Handlers and routes ───
	h := initHandlers(svcs, limiters, hub, db.Conn, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User, cfg)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	handler := middleware.Logging(logger)(corsHandler.Handler(mux))

	// ─── 6. HTTP server ───
	// WriteTimeout stays zero: /ws connections are long-lived and the
	// WebSocket pumps manage their own deadlines.
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─── 7. Graceful shutdown ───
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr()).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("server error")
			hub.Shutdown()
			return err
		}
	case <-sigCtx.Done():
	}

	log.Info("shutting down")

	// WebSocket clients go first so they see the close frame.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

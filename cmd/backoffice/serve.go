package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web back-office",
	Long: `Start the HTTP server. The collections are rehydrated from the local
cache first, then refreshed from the API; a failed refresh keeps the cache.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.close()
	log := d.log

	if err := d.svc.Sync(cmd.Context()); err != nil {
		log.Warn("initial sync failed, serving cached data", zap.Error(err))
	}

	if d.cfg.Auth.PasswordHash == "" {
		log.Warn("auth.password_hash is empty, nobody can log in (see `backoffice hash-password`)")
	}

	srv := &http.Server{
		Addr:         d.cfg.Server.Addr(),
		Handler:      NewApp(d.svc, d.cfg.Auth, log),
		ReadTimeout:  d.cfg.Server.ReadTimeout,
		WriteTimeout: d.cfg.Server.WriteTimeout,
		IdleTimeout:  d.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("dev", d.cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("shutdown signal received")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

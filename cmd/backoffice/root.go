package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/config"
	"github.com/maghrebglobal/backoffice/internal/logger"
	"github.com/maghrebglobal/backoffice/internal/services"
	"github.com/maghrebglobal/backoffice/internal/store"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Maghreb Global back-office",
	Long: `Back-office of Maghreb Global: client directory, product catalog,
invoices and delivery slips, backed by the company API with a local cache.

Configuration is read from .env, config.toml and MG_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, syncCmd, wordsCmd, renderCmd, hashPasswordCmd)
}

// deps is what the config-backed commands share: the loaded settings,
// the logger, the cache and the service built on both.
type deps struct {
	cfg   *config.Config
	log   *zap.Logger
	cache *store.Store
	svc   *services.Backoffice
}

// setup loads the configuration, opens the cache and rehydrates the service.
func setup(cmd *cobra.Command) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log)

	cache, err := store.Open(cfg.Cache, log)
	if err != nil {
		return nil, err
	}
	log.Info("cache ready", zap.String("dsn", store.RedactDSN(cfg.Cache.DSN)))

	svc := services.New(apiclient.New(cfg.API, log), cache, log)
	if err := svc.Bootstrap(cmd.Context()); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("rehydrate cache: %w", err)
	}
	return &deps{cfg: cfg, log: log, cache: cache, svc: svc}, nil
}

func (d *deps) close() {
	_ = d.log.Sync()
	if err := d.cache.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close cache: %v\n", err)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/esterlin12/tvplus/internal/catalog"
	"github.com/esterlin12/tvplus/internal/player"
	"github.com/esterlin12/tvplus/internal/repositories"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/session"
	"github.com/esterlin12/tvplus/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var httpClient *http.Client
	if config.Server.TimeoutSeconds > 0 {
		httpClient = &http.Client{Timeout: time.Duration(config.Server.TimeoutSeconds) * time.Second}
	}

	api := services.NewDirectoryService(config.Server.BaseURL, httpClient)
	store := session.NewFileStore(shared.ExpandHome(config.Auth.TokenPath))
	sess := session.NewManager(api, store, logger)

	// The listing cache is optional; without a database the client just
	// loses offline reads.
	var cache catalog.Cache
	dbPath := shared.ExpandHome(config.Database.Path)
	if _, err := os.Stat(dbPath); err == nil {
		if db, err := shared.NewDatabase(dbPath); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			cache = repositories.NewChannelRepository(db)
		} else {
			logger.Warn("failed to open listing cache", "error", err)
		}
	}

	cat := catalog.NewSynchronizer(catalog.Options{
		API:            api,
		Session:        sess,
		Cache:          cache,
		Logger:         logger,
		RequestsPerSec: config.Server.RequestsPerSec,
	})
	selector := player.NewSelector(api, logger)

	runner := NewRunner(RunnerOpts{
		Config:   config,
		API:      api,
		Session:  sess,
		Catalog:  cat,
		Selector: selector,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "tvplus",
		Usage:    "Browse and watch channels from a live-streaming directory",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/esterlin12/tvplus/internal/repositories"
	"github.com/esterlin12/tvplus/internal/shared"
	"github.com/urfave/cli/v3"
)

// openCache opens the listing cache database from config.
func (r *Runner) openCache() (*repositories.ChannelRepository, func(), error) {
	dbPath := shared.ExpandHome(r.config.Database.Path)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, nil, fmt.Errorf("listing cache not initialized; run 'tvplus setup database' first")
	}

	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open listing cache: %w", err)
	}
	return repositories.NewChannelRepository(db), func() { db.Close() }, nil
}

// CacheStatus prints what the listing cache currently holds.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	counts, err := repo.Counts()
	if err != nil {
		return err
	}
	categories, err := repo.Categories()
	if err != nil {
		return err
	}

	if len(counts) == 0 && len(categories) == 0 {
		return r.writePlain("Listing cache is empty\n")
	}

	for _, scope := range []string{"public", "owned"} {
		n, ok := counts[scope]
		if !ok {
			continue
		}
		fetched, err := repo.FetchedAt(scope)
		if err != nil {
			return err
		}
		r.writePlain("%s: %s (fetched %s)\n", scope, fmtChannelCount(n), fetched.Local().Format("2006-01-02 15:04"))
	}
	r.writePlain("categories: %d\n", len(categories))
	return nil
}

// CacheClear drops every cached listing and category.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Clear(); err != nil {
		return err
	}

	r.logger.Info("listing cache cleared")
	return r.writePlain("✓ Listing cache cleared\n")
}

// cacheCommand inspects and maintains the offline listing cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the offline listing cache",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show what the cache currently holds",
				Action: r.CacheStatus,
			},
			{
				Name:   "clear",
				Usage:  "Drop every cached listing and category",
				Action: r.CacheClear,
			},
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/esterlin12/tvplus/internal/catalog"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/shared"
	"github.com/esterlin12/tvplus/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ChannelsList lists public channels, optionally filtered by search term and category.
func (r *Runner) ChannelsList(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	r.catalog.SetScope(catalog.ScopePublic)
	r.catalog.SetFilters(catalog.Filters{
		Search:   cmd.String("search"),
		Category: cmd.String("category"),
	})

	if err := r.catalog.Refresh(ctx); err != nil {
		channels := r.catalog.Items()
		if len(channels) == 0 {
			return err
		}
		// Cached listing survived the failed fetch.
		r.logger.Warn("directory unreachable, showing cached listing", "error", err)
	}

	return r.printChannels(r.catalog.Items(), cmd.Bool("json"), cmd.Bool("pretty"))
}

// ChannelsMine lists the authenticated account's channels.
func (r *Runner) ChannelsMine(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	r.catalog.SetScope(catalog.ScopeOwned)
	if err := r.catalog.Refresh(ctx); err != nil {
		return err
	}

	return r.printChannels(r.catalog.Items(), cmd.Bool("json"), cmd.Bool("pretty"))
}

// ChannelsCreate submits a new channel to the directory.
func (r *Runner) ChannelsCreate(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	draft, err := draftFromFlags(cmd)
	if err != nil {
		return err
	}

	channel, err := r.catalog.Create(ctx, draft)
	if err != nil {
		return err
	}

	r.logger.Info("channel created", "id", channel.ID, "name", channel.Name)
	return r.writePlain("✓ Channel created: %s (ID: %s)\n", channel.Name, channel.ID)
}

// ChannelsUpdate replaces an existing channel's fields.
func (r *Runner) ChannelsUpdate(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}

	draft, err := draftFromFlags(cmd)
	if err != nil {
		return err
	}

	channel, err := r.catalog.Update(ctx, id, draft)
	if err != nil {
		return err
	}

	r.logger.Info("channel updated", "id", channel.ID, "name", channel.Name)
	return r.writePlain("✓ Channel updated: %s\n", channel.Name)
}

// ChannelsDelete removes a channel after explicit confirmation via --yes.
func (r *Runner) ChannelsDelete(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}

	if !cmd.Bool("yes") {
		return fmt.Errorf("deleting a channel is permanent; re-run with --yes to confirm")
	}

	if err := r.catalog.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.Info("channel deleted", "id", id)
	return r.writePlain("✓ Channel deleted\n")
}

// ChannelsM3U8 prints a channel's current stream URLs.
func (r *Runner) ChannelsM3U8(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}

	urls, err := r.api.M3U8(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string][]string{"m3u8_urls": urls}, cmd.Bool("pretty"))
	}

	if len(urls) == 0 {
		return r.writePlain("Channel has no streams\n")
	}
	for i, url := range urls {
		r.writePlain("%d. %s\n", i+1, url)
	}
	return nil
}

// ChannelsExport writes the current listing to disk in an external format.
func (r *Runner) ChannelsExport(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	if cmd.Bool("mine") {
		r.catalog.SetScope(catalog.ScopeOwned)
	} else {
		r.catalog.SetScope(catalog.ScopePublic)
		r.catalog.SetFilters(catalog.Filters{
			Search:   cmd.String("search"),
			Category: cmd.String("category"),
		})
	}

	if err := r.catalog.Refresh(ctx); err != nil {
		return err
	}

	channels := r.catalog.Items()
	if len(channels) == 0 {
		return r.writePlain("Nothing to export\n")
	}

	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = shared.ExpandHome(r.config.Export.OutputDir)
	}

	prog := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.Export(ctx, prog, channels, tasks.ExportOpts{
		Format:         cmd.String("format"),
		OutputDir:      outputDir,
		NumWorkers:     r.config.Export.NumWorkers,
		RateLimit:      r.config.Export.RateLimit,
		ResolveStreams: cmd.Bool("resolve"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %s", fmtChannelCount(result.TotalChannels))
	r.writePlain("Listing: %s\n", result.ListingFile)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.FailedResolutions > 0 {
		r.writePlain("⚠ %d channels kept stale stream urls\n", result.FailedResolutions)
	}
	return nil
}

// Categories prints the distinct category names known to the directory.
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	if err := r.catalog.RefreshCategories(ctx); err != nil {
		categories := r.catalog.Categories()
		if len(categories) == 0 {
			return err
		}
		r.logger.Warn("directory unreachable, showing cached categories", "error", err)
	}

	categories := r.catalog.Categories()
	if cmd.Bool("json") {
		return r.writeJSON(map[string][]string{"categories": categories}, cmd.Bool("pretty"))
	}

	for _, name := range categories {
		r.writePlain("%s\n", name)
	}
	return nil
}

func (r *Runner) printChannels(channels []models.Channel, asJSON, pretty bool) error {
	if asJSON {
		return r.writeJSON(channels, pretty)
	}

	if len(channels) == 0 {
		return r.writePlain("No channels found\n")
	}

	for _, channel := range channels {
		marker := " "
		if !channel.Playable() {
			marker = "✗"
		}
		line := fmt.Sprintf("%s %s [%s]", marker, channel.Name, channel.ID)
		if channel.Category != "" {
			line += fmt.Sprintf(" (%s)", channel.Category)
		}
		r.writePlain("%s\n", line)
	}
	return r.writePlainln("%s", fmtChannelCount(len(channels)))
}

// draftFromFlags builds a channel draft from CLI flags, loading the logo file
// when one is given.
func draftFromFlags(cmd *cli.Command) (models.ChannelDraft, error) {
	draft := models.ChannelDraft{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Category:    cmd.String("category"),
		URLs:        cmd.StringSlice("url"),
	}

	if logoPath := cmd.String("logo"); logoPath != "" {
		logo, err := models.LoadLogo(logoPath)
		if err != nil {
			return models.ChannelDraft{}, err
		}
		draft.Logo = logo
	}

	return draft, nil
}

func fmtChannelCount(n int) string {
	if n == 1 {
		return "1 channel"
	}
	return fmt.Sprintf("%d channels", n)
}

// channelsCommand handles channel listing, playback resolution, and management.
func channelsCommand(r *Runner) *cli.Command {
	listFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Filter by name or description",
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Filter by category",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}

	draftFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "Channel name",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "description",
			Usage:    "Channel description",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Channel category",
		},
		&cli.StringFlag{
			Name:  "logo",
			Usage: "Path to a logo image file",
		},
		&cli.StringSliceFlag{
			Name:  "url",
			Usage: "Stream URL (repeatable, order preserved)",
		},
	}

	return &cli.Command{
		Name:    "channels",
		Aliases: []string{"ch"},
		Usage:   "Browse and manage directory channels",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List public channels",
				Flags:  listFlags,
				Action: r.ChannelsList,
			},
			{
				Name:   "mine",
				Usage:  "List your channels (requires sign-in)",
				Flags:  listFlags[2:],
				Action: r.ChannelsMine,
			},
			{
				Name:   "create",
				Usage:  "Create a channel (requires sign-in)",
				Flags:  draftFlags,
				Action: r.ChannelsCreate,
			},
			{
				Name:  "update",
				Usage: "Replace a channel's fields (requires sign-in)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  draftFlags,
				Action: r.ChannelsUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a channel (requires sign-in)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the deletion",
					},
				},
				Action: r.ChannelsDelete,
			},
			{
				Name:  "m3u8",
				Usage: "Print a channel's current stream URLs",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ChannelsM3U8,
			},
			{
				Name:  "export",
				Usage: "Export a listing to M3U, CSV, Markdown, or JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (m3u, csv, markdown, json)",
						Value:   "m3u",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by name or description",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Filter by category",
					},
					&cli.BoolFlag{
						Name:  "mine",
						Usage: "Export your channels instead of the public listing",
					},
					&cli.BoolFlag{
						Name:  "resolve",
						Usage: "Re-fetch each channel's stream list before exporting",
					},
				},
				Action: r.ChannelsExport,
			},
		},
	}
}

// categoriesCommand lists the distinct channel categories.
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List channel categories",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Categories,
	}
}

package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/esterlin12/tvplus/internal/models"
	helpers "github.com/esterlin12/tvplus/internal/testing"
)

func sampleListing() []models.Channel {
	return []models.Channel{
		{ID: "c1", Name: "News 24", Description: "Rolling news", Category: "News", URLs: []string{"http://example.com/stale.m3u8"}, IsActive: true},
		{ID: "c2", Name: "Sports One", Description: "Live sports", Category: "Sports", URLs: []string{"http://example.com/sports.m3u8"}, IsActive: true},
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the listing and manifest without resolving", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewExportEngine(&helpers.MockDirectory{})

		result, err := engine.Export(ctx, nil, sampleListing(), ExportOpts{Format: "m3u", OutputDir: dir})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		if result.TotalChannels != 2 || result.ResolvedChannels != 2 {
			t.Errorf("Unexpected counts: %+v", result)
		}
		helpers.AssertFileExists(t, filepath.Join(dir, "listing.m3u"))
		helpers.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(helpers.MustReadFile(t, result.ListingFile), "http://example.com/stale.m3u8") {
			t.Error("Expected listing urls exported as given")
		}
	})

	t.Run("manifest records format and counts", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewExportEngine(&helpers.MockDirectory{})

		result, err := engine.Export(ctx, nil, sampleListing(), ExportOpts{Format: "csv", OutputDir: dir})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var manifest struct {
			TotalChannels int    `json:"total_channels"`
			Format        string `json:"format"`
			ListingFile   string `json:"listing_file"`
		}
		if err := json.Unmarshal([]byte(helpers.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
			t.Fatalf("Manifest is not valid JSON: %v", err)
		}
		if manifest.TotalChannels != 2 || manifest.Format != "csv" {
			t.Errorf("Unexpected manifest: %+v", manifest)
		}
	})

	t.Run("resolves fresh streams before exporting", func(t *testing.T) {
		dir := t.TempDir()
		api := &helpers.MockDirectory{M3U8Result: []string{"http://example.com/fresh.m3u8"}}
		engine := NewExportEngine(api)

		result, err := engine.Export(ctx, nil, sampleListing(), ExportOpts{
			Format:         "m3u",
			OutputDir:      dir,
			ResolveStreams: true,
			RateLimit:      1000,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		if result.ResolvedChannels != 2 || result.FailedResolutions != 0 {
			t.Errorf("Unexpected counts: %+v", result)
		}
		if n := api.CallCount("M3U8"); n != 2 {
			t.Errorf("Expected 2 resolutions, got %d", n)
		}

		listing := helpers.MustReadFile(t, result.ListingFile)
		if strings.Contains(listing, "stale.m3u8") {
			t.Error("Expected stale urls replaced")
		}
		if !strings.Contains(listing, "fresh.m3u8") {
			t.Error("Expected fresh urls exported")
		}
	})

	t.Run("failed resolutions keep the urls they arrived with", func(t *testing.T) {
		dir := t.TempDir()
		api := &helpers.MockDirectory{M3U8Err: errors.New("connection refused")}
		engine := NewExportEngine(api)

		result, err := engine.Export(ctx, nil, sampleListing(), ExportOpts{
			Format:         "m3u",
			OutputDir:      dir,
			ResolveStreams: true,
			RateLimit:      1000,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		if result.FailedResolutions != 2 || result.ResolvedChannels != 0 {
			t.Errorf("Unexpected counts: %+v", result)
		}
		if !strings.Contains(helpers.MustReadFile(t, result.ListingFile), "stale.m3u8") {
			t.Error("Expected original urls kept on failure")
		}
	})

	t.Run("sends progress updates without blocking", func(t *testing.T) {
		dir := t.TempDir()
		api := &helpers.MockDirectory{M3U8Result: []string{"http://example.com/fresh.m3u8"}}
		engine := NewExportEngine(api)

		prog := make(chan ProgressUpdate, 16)
		var updates []ProgressUpdate
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range prog {
				updates = append(updates, u)
			}
		}()

		_, err := engine.Export(ctx, prog, sampleListing(), ExportOpts{
			Format:         "json",
			OutputDir:      dir,
			ResolveStreams: true,
			RateLimit:      1000,
		})
		close(prog)
		wg.Wait()
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var sawResolve, sawWrite bool
		for _, u := range updates {
			switch u.Phase {
			case ResolveStreams:
				sawResolve = true
			case WriteFiles:
				sawWrite = true
			}
		}
		if !sawResolve || !sawWrite {
			t.Errorf("Expected both phases reported, got %+v", updates)
		}
	})

	t.Run("rejects resolution without a client", func(t *testing.T) {
		engine := NewExportEngine(nil)
		if _, err := engine.Export(ctx, nil, sampleListing(), ExportOpts{ResolveStreams: true}); err == nil {
			t.Error("Expected error without a directory client")
		}
	})

	t.Run("fails on an unwritable output directory", func(t *testing.T) {
		engine := NewExportEngine(&helpers.MockDirectory{})
		_, err := engine.Export(ctx, nil, sampleListing(), ExportOpts{OutputDir: "/proc/nope"})
		if err == nil {
			t.Error("Expected error for unwritable directory")
		}
	})
}

func TestPhaseString(t *testing.T) {
	if ResolveStreams.String() != "resolve_streams" {
		t.Errorf("Unexpected: %s", ResolveStreams.String())
	}
	if WriteFiles.String() != "write_files" {
		t.Errorf("Unexpected: %s", WriteFiles.String())
	}
	if Phase(99).String() != "" {
		t.Error("Expected empty string for unknown phase")
	}
}

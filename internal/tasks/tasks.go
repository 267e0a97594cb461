package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/esterlin12/tvplus/internal/formatter"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/shared"
	"golang.org/x/time/rate"
)

// ExportOpts contains configuration for listing exports.
type ExportOpts struct {
	Format         string  // Export format: json, csv, markdown, m3u
	OutputDir      string  // Base output directory (default: channel_export_{epoch})
	NumWorkers     int     // Concurrent stream resolvers (default: 5)
	RateLimit      float64 // Requests per second (default: 5)
	ResolveStreams bool    // Re-fetch each channel's stream list before exporting
}

// ChannelResolveJob carries one channel through the resolver pool.
type ChannelResolveJob struct {
	Index   int
	Channel models.Channel
}

// ChannelResolveResult is the per-channel outcome of stream resolution.
type ChannelResolveResult struct {
	Index       int
	ChannelID   string
	ChannelName string
	Streams     int
	Success     bool
	Error       error
}

// ExportResult summarizes a completed listing export.
type ExportResult struct {
	TotalChannels     int                    `json:"total_channels"`
	ResolvedChannels  int                    `json:"resolved_channels"`
	FailedResolutions int                    `json:"failed_resolutions"`
	OutputDirectory   string                 `json:"output_directory"`
	ListingFile       string                 `json:"listing_file"`
	ManifestPath      string                 `json:"manifest_path,omitempty"`
	Results           []ChannelResolveResult `json:"-"`
}

// ExportEngine writes channel listings to disk in external formats.
//
// When stream resolution is requested it re-fetches every channel's m3u8 list
// through a rate-limited worker pool before rendering; the listing payload's
// urls can be stale by the time an export runs.
type ExportEngine struct {
	api services.Directory
}

// NewExportEngine creates an ExportEngine backed by the given directory client.
func NewExportEngine(api services.Directory) *ExportEngine {
	return &ExportEngine{api: api}
}

// Export writes channels to a listing file in opts.Format, plus a JSON
// manifest describing the run. Progress updates are sent to prog when
// non-nil; sends never block.
func (e *ExportEngine) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	channels []models.Channel,
	opts ExportOpts,
) (*ExportResult, error) {
	if opts.ResolveStreams && e.api == nil {
		return nil, fmt.Errorf("%w: directory client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("channel_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		TotalChannels:   len(channels),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ChannelResolveResult, 0, len(channels)),
	}

	resolved := make([]models.Channel, len(channels))
	copy(resolved, channels)

	if opts.ResolveStreams {
		e.resolveStreams(ctx, prog, resolved, result, opts)
	} else {
		result.ResolvedChannels = len(channels)
	}

	e.sendProgress(prog, writingFilesUpdate(len(channels)))

	listingPath := filepath.Join(opts.OutputDir, "listing."+formatter.ExtensionFor(opts.Format))
	written, err := formatter.WriteExport(resolved, opts.Format, listingPath)
	if err != nil {
		return result, fmt.Errorf("failed to write listing: %w", err)
	}
	result.ListingFile = written

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// resolveStreams refreshes each channel's stream list in place through a
// worker pool, respecting the configured rate limit. Channels whose
// resolution fails keep the urls they arrived with.
func (e *ExportEngine) resolveStreams(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	channels []models.Channel,
	result *ExportResult,
	opts ExportOpts,
) {
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan ChannelResolveJob, len(channels))
	results := make(chan ChannelResolveResult, len(channels))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.resolveWorker(ctx, &wg, limiter, jobs, results, channels)
	}

	e.sendProgress(prog, resolvingStreamsUpdate(0, len(channels), ""))
	for i, channel := range channels {
		jobs <- ChannelResolveJob{Index: i, Channel: channel}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.ResolvedChannels++
			e.sendProgress(prog, resolvingStreamsUpdate(completed, len(channels), res.ChannelName))
		} else {
			result.FailedResolutions++
			e.sendProgress(prog, resolveFailedUpdate(completed, len(channels), res.ChannelName, res.Error))
		}
	}
}

// resolveWorker drains jobs, writing fresh stream lists into channels by index.
func (e *ExportEngine) resolveWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan ChannelResolveJob,
	results chan<- ChannelResolveResult,
	channels []models.Channel,
) {
	defer wg.Done()

	for job := range jobs {
		res := ChannelResolveResult{
			Index:       job.Index,
			ChannelID:   job.Channel.ID,
			ChannelName: job.Channel.Name,
		}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = fmt.Errorf("resolution canceled: %w", err)
			results <- res
			continue
		}

		urls, err := e.api.M3U8(ctx, job.Channel.ID)
		if err != nil {
			res.Error = fmt.Errorf("failed to resolve streams: %w", err)
			results <- res
			continue
		}

		channels[job.Index].URLs = urls
		res.Streams = len(urls)
		res.Success = true
		results <- res
	}
}

func (e *ExportEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

func writeManifest(result *ExportResult, format, path string) error {
	manifest := struct {
		*ExportResult
		Format     string    `json:"format"`
		ExportedAt time.Time `json:"exported_at"`
	}{
		ExportResult: result,
		Format:       format,
		ExportedAt:   time.Now().UTC(),
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

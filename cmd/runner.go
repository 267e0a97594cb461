package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/esterlin12/tvplus/internal/catalog"
	"github.com/esterlin12/tvplus/internal/player"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/session"
	"github.com/esterlin12/tvplus/internal/shared"
	"github.com/esterlin12/tvplus/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	api      services.Directory
	sess     *session.Manager
	catalog  *catalog.Synchronizer
	selector *player.Selector
	engine   *tasks.ExportEngine
	logger   *log.Logger
	output   io.Writer

	initOnce sync.Once
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	API      services.Directory
	Session  *session.Manager
	Catalog  *catalog.Synchronizer
	Selector *player.Selector
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		api:      opts.API,
		sess:     opts.Session,
		catalog:  opts.Catalog,
		selector: opts.Selector,
		engine:   tasks.NewExportEngine(opts.API),
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// initSession restores the persisted session once per process. A stored token
// that fails verification leaves the session anonymous without an error.
func (r *Runner) initSession(ctx context.Context) {
	r.initOnce.Do(func() {
		if err := r.sess.Initialize(ctx); err != nil {
			r.logger.Warn("failed to restore session", "error", err)
		}
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, channelsCommand, categoriesCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

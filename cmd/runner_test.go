package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esterlin12/tvplus/internal/catalog"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/player"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/session"
	"github.com/esterlin12/tvplus/internal/shared"
	tu "github.com/esterlin12/tvplus/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner wires a Runner over a mock directory with an isolated token
// store and a buffered output.
func newTestRunner(t *testing.T, api *tu.MockDirectory) (*Runner, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	logger := shared.NewLogger(&bytes.Buffer{})
	store := session.NewFileStore(filepath.Join(t.TempDir(), "token"))
	sess := session.NewManager(api, store, logger)
	cat := catalog.NewSynchronizer(catalog.Options{
		API:            api,
		Session:        sess,
		Logger:         logger,
		RequestsPerSec: 1000,
	})

	return NewRunner(RunnerOpts{
		API:      api,
		Session:  sess,
		Catalog:  cat,
		Selector: player.NewSelector(api, logger),
		Logger:   logger,
		Output:   output,
	}), output
}

// run invokes a CLI command line against the runner's registered commands.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "tvplus", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"tvplus"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("keeps provided dependencies", func(t *testing.T) {
			output := &bytes.Buffer{}
			api := &tu.MockDirectory{}
			runner := NewRunner(RunnerOpts{API: api, Output: output})

			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.engine == nil {
				t.Error("expected export engine to be constructed")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Fatal("expected error for non-serializable data")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limited})
			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	user := &models.User{ID: "u1", Username: "erin", Email: "erin@example.com"}

	t.Run("login prints the signed-in user", func(t *testing.T) {
		api := &tu.MockDirectory{LoginToken: "tok-1", LoginUser: user, MeUser: user}
		runner, output := newTestRunner(t, api)

		if err := run(t, runner, "auth", "login", "-u", "erin", "-p", "secret"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Signed in as erin") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("login surfaces invalid credentials", func(t *testing.T) {
		api := &tu.MockDirectory{LoginErr: &services.APIError{StatusCode: 401, Detail: "Invalid credentials"}}
		runner, _ := newTestRunner(t, api)

		err := run(t, runner, "auth", "login", "-u", "erin", "-p", "wrong")
		if err == nil {
			t.Fatal("expected login error")
		}
		if !strings.Contains(err.Error(), "Invalid credentials") {
			t.Errorf("expected backend detail, got %v", err)
		}
	})

	t.Run("whoami reports an anonymous session", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockDirectory{})

		if err := run(t, runner, "auth", "whoami"); err != nil {
			t.Fatalf("whoami failed: %v", err)
		}
		if !strings.Contains(output.String(), "Not signed in") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("logout succeeds while anonymous", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockDirectory{})

		if err := run(t, runner, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Signed out") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})
}

func TestChannelCommands(t *testing.T) {
	listing := []models.Channel{
		{ID: "c1", Name: "News 24", Description: "Rolling news", Category: "News", URLs: []string{"http://example.com/news.m3u8"}, IsActive: true},
		{ID: "c2", Name: "Sports One", Description: "Live sports", Category: "Sports", IsActive: true},
	}

	t.Run("list prints channels with unplayable marker", func(t *testing.T) {
		api := &tu.MockDirectory{ChannelsResult: listing}
		runner, output := newTestRunner(t, api)

		if err := run(t, runner, "channels", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "News 24 [c1] (News)") {
			t.Errorf("expected channel line, got %s", out)
		}
		if !strings.Contains(out, "✗ Sports One") {
			t.Errorf("expected unplayable marker, got %s", out)
		}
		if !strings.Contains(out, "2 channels") {
			t.Errorf("expected count, got %s", out)
		}
	})

	t.Run("list passes filters to the backend", func(t *testing.T) {
		var gotSearch, gotCategory string
		api := &tu.MockDirectory{
			ChannelsFn: func(ctx context.Context, search, category string) ([]models.Channel, error) {
				gotSearch, gotCategory = search, category
				return nil, nil
			},
		}
		runner, _ := newTestRunner(t, api)

		if err := run(t, runner, "channels", "list", "-s", "news", "--category", "Sports"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if gotSearch != "news" || gotCategory != "Sports" {
			t.Errorf("expected filters forwarded, got (%s, %s)", gotSearch, gotCategory)
		}
	})

	t.Run("mine refuses while anonymous without a request", func(t *testing.T) {
		api := &tu.MockDirectory{}
		runner, _ := newTestRunner(t, api)

		err := run(t, runner, "channels", "mine")
		if !errors.Is(err, shared.ErrAuthRequired) {
			t.Errorf("expected ErrAuthRequired, got %v", err)
		}
		if n := api.CallCount("MyChannels"); n != 0 {
			t.Errorf("expected no backend call, got %d", n)
		}
	})

	t.Run("delete requires --yes", func(t *testing.T) {
		api := &tu.MockDirectory{}
		runner, _ := newTestRunner(t, api)

		err := run(t, runner, "channels", "delete", "c1")
		if err == nil || !strings.Contains(err.Error(), "--yes") {
			t.Errorf("expected confirmation error, got %v", err)
		}
		if n := api.CallCount("DeleteChannel"); n != 0 {
			t.Errorf("expected no backend call, got %d", n)
		}
	})

	t.Run("m3u8 prints stream urls", func(t *testing.T) {
		api := &tu.MockDirectory{M3U8Result: []string{"http://example.com/a.m3u8", "http://example.com/b.m3u8"}}
		runner, output := newTestRunner(t, api)

		if err := run(t, runner, "channels", "m3u8", "c1"); err != nil {
			t.Fatalf("m3u8 failed: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "1. http://example.com/a.m3u8") || !strings.Contains(out, "2. http://example.com/b.m3u8") {
			t.Errorf("expected numbered urls, got %s", out)
		}
	})

	t.Run("m3u8 reports a streamless channel", func(t *testing.T) {
		api := &tu.MockDirectory{M3U8Result: []string{}}
		runner, output := newTestRunner(t, api)

		if err := run(t, runner, "channels", "m3u8", "c1"); err != nil {
			t.Fatalf("m3u8 failed: %v", err)
		}
		if !strings.Contains(output.String(), "no streams") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("export writes listing and manifest", func(t *testing.T) {
		dir := t.TempDir()
		api := &tu.MockDirectory{ChannelsResult: listing}
		runner, output := newTestRunner(t, api)

		if err := run(t, runner, "channels", "export", "-f", "m3u", "-o", dir); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "listing.m3u"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "✓ Exported 2 channels") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("categories prints names", func(t *testing.T) {
		api := &tu.MockDirectory{CategoriesResult: []string{"News", "Sports"}}
		runner, output := newTestRunner(t, api)

		if err := run(t, runner, "categories"); err != nil {
			t.Fatalf("categories failed: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "News\n") || !strings.Contains(out, "Sports\n") {
			t.Errorf("unexpected output: %s", out)
		}
	})
}

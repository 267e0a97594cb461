package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChannelDraft(t *testing.T) {
	t.Run("Sanitize Drops Blank URLs", func(t *testing.T) {
		draft := ChannelDraft{
			Name: "N",
			URLs: []string{"", "https://x/a.m3u8", "  ", "https://x/b.m3u8", ""},
		}

		got := draft.Sanitize()

		want := []string{"https://x/a.m3u8", "https://x/b.m3u8"}
		if len(got.URLs) != len(want) {
			t.Fatalf("expected %d urls, got %d", len(want), len(got.URLs))
		}
		for i := range want {
			if got.URLs[i] != want[i] {
				t.Errorf("url %d: expected %s, got %s", i, want[i], got.URLs[i])
			}
		}

		// the original draft is untouched
		if len(draft.URLs) != 5 {
			t.Errorf("expected original draft to keep 5 urls, got %d", len(draft.URLs))
		}
	})

	t.Run("Sanitize Empty", func(t *testing.T) {
		got := ChannelDraft{URLs: []string{"", " "}}.Sanitize()
		if len(got.URLs) != 0 {
			t.Errorf("expected no urls, got %v", got.URLs)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (ChannelDraft{Name: "N", Description: "D"}).Validate(); err != nil {
			t.Errorf("expected valid draft, got %v", err)
		}
		if err := (ChannelDraft{Description: "D"}).Validate(); err == nil {
			t.Error("expected error for missing name")
		}
		if err := (ChannelDraft{Name: " ", Description: "D"}).Validate(); err == nil {
			t.Error("expected error for blank name")
		}
		if err := (ChannelDraft{Name: "N"}).Validate(); err == nil {
			t.Error("expected error for missing description")
		}
	})
}

func TestChannelPlayable(t *testing.T) {
	if (Channel{}).Playable() {
		t.Error("channel without urls should not be playable")
	}
	if !(Channel{URLs: []string{"https://x/a.m3u8"}}).Playable() {
		t.Error("channel with a url should be playable")
	}
}

func TestLoadLogo(t *testing.T) {
	t.Run("Encodes PNG As Data URL", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logo.png")
		if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0644); err != nil {
			t.Fatalf("failed to write logo: %v", err)
		}

		logo, err := LoadLogo(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(logo, "data:image/png;base64,") {
			t.Errorf("expected data:image/png prefix, got %s", logo)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadLogo(filepath.Join(t.TempDir(), "nope.png")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

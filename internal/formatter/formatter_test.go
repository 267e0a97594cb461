package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esterlin12/tvplus/internal/models"
	helpers "github.com/esterlin12/tvplus/internal/testing"
)

func sampleListing() []models.Channel {
	return []models.Channel{
		{
			ID:          "c1",
			Name:        "News 24",
			Description: "Rolling news coverage",
			Category:    "News",
			Logo:        "http://example.com/news.png",
			URLs:        []string{"http://example.com/news-main.m3u8", "http://example.com/news-backup.m3u8"},
			IsActive:    true,
		},
		{
			ID:          "c2",
			Name:        "Sports One",
			Description: "Live sports",
			Category:    "Sports",
			URLs:        []string{},
			IsActive:    true,
		},
	}
}

func TestExportToM3U(t *testing.T) {
	data, err := ExportToM3U(sampleListing())
	if err != nil {
		t.Fatalf("ExportToM3U failed: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, "#EXTM3U\n") {
		t.Error("Expected #EXTM3U header")
	}
	if !strings.Contains(out, `tvg-id="c1"`) {
		t.Error("Expected tvg-id attribute")
	}
	if !strings.Contains(out, `group-title="News"`) {
		t.Error("Expected group-title attribute")
	}
	if !strings.Contains(out, ",News 24\nhttp://example.com/news-main.m3u8\n") {
		t.Error("Expected primary stream entry")
	}
	if !strings.Contains(out, ",News 24 (backup 1)\nhttp://example.com/news-backup.m3u8\n") {
		t.Error("Expected backup stream entry")
	}
	if strings.Contains(out, "Sports One") {
		t.Error("Expected channel without streams omitted")
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleListing())
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ID,Name,Category,Active,Streams,URLs" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "http://example.com/news-main.m3u8; http://example.com/news-backup.m3u8") {
		t.Errorf("Expected joined URLs, got %s", lines[1])
	}
	if !strings.Contains(lines[2], "c2,Sports One,Sports,true,0,") {
		t.Errorf("Expected streamless row, got %s", lines[2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleListing(), "Public Channels")
	if err != nil {
		t.Fatalf("ExportToMarkdown failed: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "# Public Channels") {
		t.Error("Expected title heading")
	}
	if !strings.Contains(out, "**Channels**: 2") {
		t.Error("Expected channel count")
	}
	if !strings.Contains(out, "**News 24** _(News)_") {
		t.Error("Expected channel entry with category")
	}
	if !strings.Contains(out, "**Sports One** _(Sports)_ — no streams") {
		t.Error("Expected unplayable marker")
	}

	t.Run("defaults the title", func(t *testing.T) {
		data, err := ExportToMarkdown(nil, "")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "# Channel Listing") {
			t.Error("Expected default title")
		}
	})
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(sampleListing())
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	var decoded []models.Channel
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != "c1" {
		t.Errorf("Unexpected round trip: %+v", decoded)
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("writes the requested format", func(t *testing.T) {
		path := filepath.Join(dir, "listing.m3u")
		written, err := WriteExport(sampleListing(), "m3u", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("Expected path %s, got %s", path, written)
		}
		helpers.AssertFileExists(t, path)
		if !strings.HasPrefix(helpers.MustReadFile(t, path), "#EXTM3U") {
			t.Error("Expected M3U content")
		}
	})

	t.Run("unknown formats fall back to json", func(t *testing.T) {
		path := filepath.Join(dir, "listing.out")
		if _, err := WriteExport(sampleListing(), "yaml", path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		var decoded []models.Channel
		if err := json.Unmarshal([]byte(helpers.MustReadFile(t, path)), &decoded); err != nil {
			t.Errorf("Expected JSON fallback: %v", err)
		}
	})

	t.Run("propagates write failures", func(t *testing.T) {
		if _, err := WriteExport(sampleListing(), "csv", filepath.Join(dir, "missing", "listing.csv")); err == nil {
			t.Error("Expected error for unwritable path")
		}
	})
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"m3u":      "m3u",
		"csv":      "csv",
		"markdown": "md",
		"json":     "json",
		"other":    "json",
	}
	for format, want := range cases {
		if got := ExtensionFor(format); got != want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", format, got, want)
		}
	}
}

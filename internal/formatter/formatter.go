// package formatter renders channel listings to export formats (M3U, CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/esterlin12/tvplus/internal/models"
)

// ExportToM3U renders a channel listing as an extended M3U playlist.
//
// Each channel contributes one entry per stream URL so external players can
// fall back manually; tvg-logo and group-title attributes are emitted when
// the channel carries a logo or category.
func ExportToM3U(channels []models.Channel) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")

	for _, channel := range channels {
		for i, url := range channel.URLs {
			name := channel.Name
			if i > 0 {
				name = fmt.Sprintf("%s (backup %d)", channel.Name, i)
			}

			buf.WriteString("#EXTINF:-1")
			buf.WriteString(fmt.Sprintf(" tvg-id=%q", channel.ID))
			if channel.Logo != "" {
				buf.WriteString(fmt.Sprintf(" tvg-logo=%q", channel.Logo))
			}
			if channel.Category != "" {
				buf.WriteString(fmt.Sprintf(" group-title=%q", channel.Category))
			}
			buf.WriteString(fmt.Sprintf(",%s\n%s\n", name, url))
		}
	}

	return buf.Bytes(), nil
}

// ExportToCSV renders a channel listing as CSV with columns: ID, Name, Category, Active, Streams, URLs
func ExportToCSV(channels []models.Channel) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Category", "Active", "Streams", "URLs"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, channel := range channels {
		record := []string{
			channel.ID,
			channel.Name,
			channel.Category,
			strconv.FormatBool(channel.IsActive),
			strconv.Itoa(len(channel.URLs)),
			joinURLs(channel.URLs),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func joinURLs(urls []string) string {
	var buf bytes.Buffer
	for i, u := range urls {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(u)
	}
	return buf.String()
}

// ExportToMarkdown renders a channel listing as a Markdown document titled with title.
func ExportToMarkdown(channels []models.Channel, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Channel Listing"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Channels**: %d\n\n", len(channels)))

	for i, channel := range channels {
		buf.WriteString(fmt.Sprintf("%d. **%s**", i+1, channel.Name))
		if channel.Category != "" {
			buf.WriteString(fmt.Sprintf(" _(%s)_", channel.Category))
		}
		if !channel.Playable() {
			buf.WriteString(" — no streams")
		}
		buf.WriteString("\n")
		if channel.Description != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", channel.Description))
		}
		for _, url := range channel.URLs {
			buf.WriteString(fmt.Sprintf("   - `%s`\n", url))
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders a channel listing as indented JSON.
func ExportToJSON(channels []models.Channel) ([]byte, error) {
	data, err := json.MarshalIndent(channels, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal channels: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders channels in the named format and writes the result to path.
//
// Supported formats are m3u, csv, markdown, and json; anything else falls
// back to json.
func WriteExport(channels []models.Channel, format, path string) (string, error) {
	var data []byte
	var err error

	switch format {
	case "m3u":
		data, err = ExportToM3U(channels)
	case "csv":
		data, err = ExportToCSV(channels)
	case "markdown":
		data, err = ExportToMarkdown(channels, "")
	case "json":
		fallthrough
	default:
		data, err = ExportToJSON(channels)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ExtensionFor returns the file extension for an export format.
func ExtensionFor(format string) string {
	switch format {
	case "m3u":
		return "m3u"
	case "csv":
		return "csv"
	case "markdown":
		return "md"
	default:
		return "json"
	}
}

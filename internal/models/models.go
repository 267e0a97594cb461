// package models defines the data model for the channel directory client
package models

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// User represents an authenticated directory account.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSuperUser bool      `json:"is_super_user"`
	CreatedAt   time.Time `json:"created_at"`
}

// Channel represents a directory channel entry as returned by the backend.
//
// URLs preserves author-specified order. A channel with zero URLs is
// presentable but unplayable.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Logo        string    `json:"logo,omitempty"`
	URLs        []string  `json:"urls"`
	Category    string    `json:"category,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Playable reports whether the channel has at least one stream URL.
func (c Channel) Playable() bool {
	return len(c.URLs) > 0
}

// ChannelDraft is the in-progress channel form state before submission.
//
// Drafts are value types replaced wholesale on each edit; validation happens
// only at the submission boundary.
type ChannelDraft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Logo        string   `json:"logo,omitempty"`
	URLs        []string `json:"urls"`
	Category    string   `json:"category,omitempty"`
}

// Sanitize returns a copy of the draft with blank and whitespace-only stream
// URLs removed, preserving the order of the remaining entries.
func (d ChannelDraft) Sanitize() ChannelDraft {
	urls := make([]string, 0, len(d.URLs))
	for _, u := range d.URLs {
		if strings.TrimSpace(u) != "" {
			urls = append(urls, u)
		}
	}
	d.URLs = urls
	return d
}

// Validate checks the draft's required fields.
func (d ChannelDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("channel name is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("channel description is required")
	}
	return nil
}

// LoadLogo reads an image file and returns it as a data URL payload suitable
// for the draft's Logo field.
func LoadLogo(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read logo file: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

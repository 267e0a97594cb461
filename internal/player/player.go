package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/shared"
)

// Selector tracks which of a channel's stream URLs is active for playback.
//
// Stream switching is explicit: a failed stream keeps its selection and the
// error is recorded, never skipped past automatically. Load reports carry the
// generation ticket they were issued under so a report from a superseded
// selection is ignored.
type Selector struct {
	api    services.Directory
	logger *log.Logger

	mu          sync.Mutex
	channel     *models.Channel
	urls        []string
	activeIndex int
	generation  uint64
	lastErr     error
	open        bool
}

// NewSelector creates a playback selector with nothing open.
func NewSelector(api services.Directory, logger *log.Logger) *Selector {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Selector{api: api, logger: logger}
}

// Open resolves a channel's stream list and selects the first URL. Channels
// with no streams are rejected with [shared.ErrNoStreams] and leave the
// selector closed.
//
// The stream list is fetched fresh from the directory; the listing payload's
// urls may be stale by the time the viewer tunes in.
func (s *Selector) Open(ctx context.Context, channel models.Channel) (uint64, error) {
	urls, err := s.api.M3U8(ctx, channel.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if len(urls) == 0 {
		return 0, fmt.Errorf("%w: channel %q", shared.ErrNoStreams, channel.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = &channel
	s.urls = urls
	s.activeIndex = 0
	s.generation++
	s.lastErr = nil
	s.open = true

	s.logger.Debug("opened channel for playback",
		"channel", channel.Name, "streams", len(urls))
	return s.generation, nil
}

// OpenDirect selects from an already-known stream list, for callers that
// resolved the urls themselves. Behaves like [Selector.Open] otherwise.
func (s *Selector) OpenDirect(channel models.Channel, urls []string) (uint64, error) {
	if len(urls) == 0 {
		return 0, fmt.Errorf("%w: channel %q", shared.ErrNoStreams, channel.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = &channel
	s.urls = urls
	s.activeIndex = 0
	s.generation++
	s.lastErr = nil
	s.open = true
	return s.generation, nil
}

// Select switches playback to the stream at index. Out-of-range indexes are
// rejected with [shared.ErrInvalidSelection] and leave the active stream
// unchanged. A successful switch clears the last load error and returns the
// new generation ticket.
func (s *Selector) Select(index int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return 0, shared.ErrPlayerClosed
	}
	if index < 0 || index >= len(s.urls) {
		return 0, fmt.Errorf("%w: stream %d of %d", shared.ErrInvalidSelection, index, len(s.urls))
	}

	s.activeIndex = index
	s.generation++
	s.lastErr = nil
	return s.generation, nil
}

// ReportLoadError records a playback failure observed under ticket. Reports
// from a superseded ticket are dropped; the viewer has already moved on and
// the stale failure must not clobber the new stream's state. The selection
// itself never changes on failure.
func (s *Selector) ReportLoadError(ticket uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open || ticket != s.generation {
		s.logger.Debug("dropping stale load report", "ticket", ticket, "generation", s.generation)
		return
	}

	s.lastErr = err
	if s.channel != nil {
		s.logger.Warn("stream failed to load",
			"channel", s.channel.Name, "stream", s.activeIndex, "error", err)
	}
}

// Close drops the open channel and invalidates outstanding tickets.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = nil
	s.urls = nil
	s.activeIndex = 0
	s.generation++
	s.lastErr = nil
	s.open = false
}

// Channel returns the channel currently open for playback, or nil.
func (s *Selector) Channel() *models.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel == nil {
		return nil
	}
	c := *s.channel
	return &c
}

// URLs returns a copy of the open channel's stream list.
func (s *Selector) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, len(s.urls))
	copy(urls, s.urls)
	return urls
}

// ActiveIndex returns the selected stream index, or -1 when nothing is open.
func (s *Selector) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return -1
	}
	return s.activeIndex
}

// ActiveURL returns the selected stream URL, or "" when nothing is open.
func (s *Selector) ActiveURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ""
	}
	return s.urls[s.activeIndex]
}

// LastError returns the recorded load failure for the current selection, or
// nil when the stream has not failed since it was selected.
func (s *Selector) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// IsOpen reports whether a channel is open for playback.
func (s *Selector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/session"
	"github.com/esterlin12/tvplus/internal/shared"
	"golang.org/x/time/rate"
)

// Scope selects which slice of the directory the catalog shows.
type Scope int

const (
	// ScopePublic shows every active channel in the directory.
	ScopePublic Scope = iota
	// ScopeOwned shows only the authenticated caller's channels.
	ScopeOwned
)

func (s Scope) String() string {
	if s == ScopeOwned {
		return "owned"
	}
	return "public"
}

// Filters narrows a public listing. Both fields are optional and combined
// with logical AND by the backend.
type Filters struct {
	Search   string
	Category string
}

// tag is the (scope, filters) identity a fetch was issued for. A response is
// applied only while its tag still matches the synchronizer's current tag.
type tag struct {
	scope   Scope
	filters Filters
}

// SessionView is the read-only slice of the session manager the catalog needs.
type SessionView interface {
	Status() session.Status
}

// Cache stores the last successful listings for offline fallback reads.
type Cache interface {
	ReplaceListing(scope string, channels []models.Channel) error
	Listing(scope string) ([]models.Channel, error)
	SaveCategories(categories []string) error
	Categories() ([]string, error)
}

// Synchronizer keeps the displayed channel set consistent with the current
// scope, filters, and backend state.
//
// Fetches are tagged with the (scope, filters) identity that produced them;
// completion applies the response only if the tag is still current, so a slow
// stale response never overwrites a newer listing (last request wins by
// identity, not completion order).
type Synchronizer struct {
	api     services.Directory
	sess    SessionView
	cache   Cache
	logger  *log.Logger
	limiter *rate.Limiter

	mu         sync.Mutex
	scope      Scope
	filters    Filters
	items      []models.Channel
	categories []string
	loading    bool
}

// Options configures a Synchronizer.
type Options struct {
	API     services.Directory
	Session SessionView
	Cache   Cache // optional
	Logger  *log.Logger
	// RequestsPerSec caps catalog list fetches; zero selects a default.
	RequestsPerSec float64
}

// NewSynchronizer creates a catalog synchronizer starting at the public scope
// with no filters.
func NewSynchronizer(opts Options) *Synchronizer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 4.0
	}

	return &Synchronizer{
		api:     opts.API,
		sess:    opts.Session,
		cache:   opts.Cache,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
	}
}

// Scope returns the active scope.
func (s *Synchronizer) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Filters returns the active filters.
func (s *Synchronizer) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// SetScope switches the catalog scope. The caller is expected to Refresh.
func (s *Synchronizer) SetScope(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
}

// SetFilters replaces the active filters wholesale. The caller is expected to
// Refresh; any in-flight fetch for the previous filters becomes stale.
func (s *Synchronizer) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
}

// Items returns a copy of the current listing.
func (s *Synchronizer) Items() []models.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.Channel, len(s.items))
	copy(items, s.items)
	return items
}

// Categories returns a copy of the known category set.
func (s *Synchronizer) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	categories := make([]string, len(s.categories))
	copy(categories, s.categories)
	return categories
}

// Loading reports whether a fetch for the current tag is in flight.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Refresh fetches the listing for the current scope and filters, replacing
// items wholesale on success.
//
// An owned-scope refresh without an authenticated session is refused locally
// with [shared.ErrAuthRequired]; no request is issued. Backend failures leave
// the previous items in place and are returned to the caller after logging;
// on a public-scope failure with nothing displayed yet, the last cached
// listing is served instead.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	t := tag{scope: s.scope, filters: s.filters}
	s.mu.Unlock()

	if t.scope == ScopeOwned && s.sess.Status() != session.Authenticated {
		return shared.ErrAuthRequired
	}

	requestID := shared.GenerateID()
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		s.finishFetch(t)
		return fmt.Errorf("fetch canceled: %w", err)
	}

	var channels []models.Channel
	var err error
	if t.scope == ScopeOwned {
		channels, err = s.api.MyChannels(ctx)
	} else {
		channels, err = s.api.Channels(ctx, t.filters.Search, t.filters.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := tag{scope: s.scope, filters: s.filters}
	if t != current {
		s.logger.Debug("discarding stale listing response",
			"request_id", requestID, "scope", t.scope.String(), "search", t.filters.Search)
		return nil
	}
	s.loading = false

	if err != nil {
		s.logger.Error("failed to fetch listing",
			"request_id", requestID, "scope", t.scope.String(), "error", err)
		if t.scope == ScopePublic && len(s.items) == 0 && s.cache != nil {
			if cached, cacheErr := s.cache.Listing(t.scope.String()); cacheErr == nil && len(cached) > 0 {
				s.logger.Info("serving cached listing", "channels", len(cached))
				s.items = cached
			}
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	s.items = channels
	if t.scope == ScopePublic && t.filters == (Filters{}) && s.cache != nil {
		if cacheErr := s.cache.ReplaceListing(t.scope.String(), channels); cacheErr != nil {
			s.logger.Warn("failed to cache listing", "error", cacheErr)
		}
	}
	return nil
}

// finishFetch clears loading if t is still the current tag.
func (s *Synchronizer) finishFetch(t tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if (tag{scope: s.scope, filters: s.filters}) == t {
		s.loading = false
	}
}

// RefreshCategories fetches the distinct category set. Independent of scope
// and authentication. Failures keep the previous set, falling back to the
// cache when nothing is known yet.
func (s *Synchronizer) RefreshCategories(ctx context.Context) error {
	categories, err := s.api.Categories(ctx)
	if err != nil {
		s.logger.Error("failed to fetch categories", "error", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.categories) == 0 && s.cache != nil {
			if cached, cacheErr := s.cache.Categories(); cacheErr == nil {
				s.categories = cached
			}
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()

	if s.cache != nil {
		if cacheErr := s.cache.SaveCategories(categories); cacheErr != nil {
			s.logger.Warn("failed to cache categories", "error", cacheErr)
		}
	}
	return nil
}

// HandleSession reacts to a session transition. When the session is no longer
// authenticated while the owned scope is active, the catalog falls back to the
// public scope; an anonymous caller must never be left pointed at an owned
// view. Returns true when the scope changed and a refresh is due.
func (s *Synchronizer) HandleSession(snap session.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Status != session.Authenticated && s.scope == ScopeOwned {
		s.scope = ScopePublic
		s.items = nil
		return true
	}
	return false
}

// Create submits a sanitized draft and re-fetches the active scope on success.
func (s *Synchronizer) Create(ctx context.Context, draft models.ChannelDraft) (*models.Channel, error) {
	if s.sess.Status() != session.Authenticated {
		return nil, shared.ErrAuthRequired
	}

	clean := draft.Sanitize()
	if err := clean.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	channel, err := s.api.CreateChannel(ctx, clean)
	if err != nil {
		return nil, err
	}

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after create failed", "error", err)
	}
	return channel, nil
}

// Update submits a sanitized draft for an existing channel and re-fetches the
// active scope on success.
func (s *Synchronizer) Update(ctx context.Context, id string, draft models.ChannelDraft) (*models.Channel, error) {
	if s.sess.Status() != session.Authenticated {
		return nil, shared.ErrAuthRequired
	}

	clean := draft.Sanitize()
	if err := clean.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	channel, err := s.api.UpdateChannel(ctx, id, clean)
	if err != nil {
		return nil, err
	}

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after update failed", "error", err)
	}
	return channel, nil
}

// Delete removes a channel and re-fetches the active scope on success.
// Interactive confirmation happens at the caller; by the time Delete runs the
// viewer has already confirmed.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if s.sess.Status() != session.Authenticated {
		return shared.ErrAuthRequired
	}

	if err := s.api.DeleteChannel(ctx, id); err != nil {
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after delete failed", "error", err)
	}
	return nil
}

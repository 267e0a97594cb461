package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/services"
	"github.com/esterlin12/tvplus/internal/shared"
)

// Status enumerates the session lifecycle states.
type Status int

const (
	// Initializing means a persisted token exists but has not been verified yet.
	Initializing Status = iota
	// Anonymous means no authenticated identity is present.
	Anonymous
	// Authenticated means the backend confirmed the current user identity.
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Snapshot is a read-only view of the session state handed to consumers.
// User is a copy; mutating it never affects the manager.
type Snapshot struct {
	Status Status
	User   *models.User
}

// Manager is the single source of truth for the caller identity.
//
// It owns the persisted token and the bearer credential installed on the
// directory client. All identity transitions (Initialize, Login, Logout) are
// serialized by a mutex and commit state and credential atomically, so the
// most recently completed transition always leaves the header consistent with
// the session state.
type Manager struct {
	mu     sync.Mutex
	api    services.Directory
	store  TokenStore
	logger *log.Logger

	status Status
	user   *models.User
	token  string
	subs   []func(Snapshot)
}

// NewManager creates a session manager. The session starts in [Initializing]
// until Initialize resolves it to Anonymous or Authenticated.
func NewManager(api services.Directory, store TokenStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		api:    api,
		store:  store,
		logger: logger,
		status: Initializing,
	}
}

// Initialize resolves the persisted token, if any, into a session state.
//
// A missing token resolves to Anonymous immediately. A present token is
// installed and verified against the backend; verification failure (expired
// token, network error) clears the persisted token and degrades silently to
// Anonymous. Initialize never returns a verification error to the caller.
func (m *Manager) Initialize(ctx context.Context) error {
	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn("failed to read persisted token", "error", err)
		token = ""
	}

	if token == "" {
		m.commit(Anonymous, nil, "")
		return nil
	}

	m.mu.Lock()
	m.status = Initializing
	m.token = token
	m.api.SetToken(token)
	m.mu.Unlock()

	user, err := m.api.Me(ctx)
	if err != nil {
		// Forced logout: an expired token is an expected steady-state
		// condition, not an anomaly.
		m.logger.Debug("token verification failed, degrading to anonymous", "error", err)
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("failed to clear persisted token", "error", err)
		}
		m.commit(Anonymous, nil, "")
		return nil
	}

	m.commit(Authenticated, user, token)
	m.logger.Info("session restored", "user", user.Username)
	return nil
}

// Login authenticates against the backend. On success the token is persisted
// and installed before Login returns. On failure no partial state is committed
// and the returned error carries the backend's detail message when present.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, user, err := m.api.Login(ctx, username, password)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, apiErr.Error())
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if err := m.store.Save(token); err != nil {
		m.logger.Warn("failed to persist token", "error", err)
	}

	m.commit(Authenticated, user, token)
	m.logger.Info("logged in", "user", user.Username)
	return nil
}

// Register creates an account. It does not authenticate; the caller is
// expected to invoke Login afterwards.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	user, err := m.api.Register(ctx, username, email, password)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %s", shared.ErrValidation, apiErr.Error())
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return user, nil
}

// Logout clears the persisted token, the installed credential, and the user.
// Safe to call when already anonymous.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token", "error", err)
	}
	m.commit(Anonymous, nil, "")
	m.logger.Info("logged out")
}

// Snapshot returns a read-only view of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status returns the current session status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsAuthenticated reports whether the backend confirmed the current identity.
func (m *Manager) IsAuthenticated() bool {
	return m.Status() == Authenticated
}

// Subscribe registers fn to be called after every committed identity
// transition. Callbacks run synchronously on the transitioning goroutine.
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// commit atomically installs the new session state and re-asserts the
// credential on the directory client, then notifies subscribers.
func (m *Manager) commit(status Status, user *models.User, token string) {
	m.mu.Lock()
	m.status = status
	m.user = user
	m.token = token
	if token != "" {
		m.api.SetToken(token)
	} else {
		m.api.ClearToken()
	}
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{Status: m.status}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

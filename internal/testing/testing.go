// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/esterlin12/tvplus/internal/models"
)

// MockDirectory is a configurable test double for [services.Directory].
//
// Every backend method records its name in Calls so tests can assert that
// locally refused operations never reach the network.
type MockDirectory struct {
	mu    sync.Mutex
	Calls []string

	Token string

	LoginToken string
	LoginUser  *models.User
	LoginErr   error

	RegisterUser *models.User
	RegisterErr  error

	MeUser *models.User
	MeErr  error

	ChannelsFn     func(ctx context.Context, search, category string) ([]models.Channel, error)
	ChannelsResult []models.Channel
	ChannelsErr    error

	MyChannelsResult []models.Channel
	MyChannelsErr    error

	CategoriesResult []string
	CategoriesErr    error

	CreateResult *models.Channel
	CreateErr    error
	CreatedDraft *models.ChannelDraft

	UpdateResult *models.Channel
	UpdateErr    error
	UpdatedDraft *models.ChannelDraft

	DeleteErr error

	M3U8Result []string
	M3U8Err    error
}

func (m *MockDirectory) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// CallCount returns how many recorded calls match name.
func (m *MockDirectory) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockDirectory) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Token = token
}

func (m *MockDirectory) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Token = ""
}

func (m *MockDirectory) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	m.record("Login")
	return m.LoginToken, m.LoginUser, m.LoginErr
}

func (m *MockDirectory) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	m.record("Register")
	return m.RegisterUser, m.RegisterErr
}

func (m *MockDirectory) Me(ctx context.Context) (*models.User, error) {
	m.record("Me")
	return m.MeUser, m.MeErr
}

func (m *MockDirectory) Channels(ctx context.Context, search, category string) ([]models.Channel, error) {
	m.record("Channels")
	if m.ChannelsFn != nil {
		return m.ChannelsFn(ctx, search, category)
	}
	return m.ChannelsResult, m.ChannelsErr
}

func (m *MockDirectory) MyChannels(ctx context.Context) ([]models.Channel, error) {
	m.record("MyChannels")
	return m.MyChannelsResult, m.MyChannelsErr
}

func (m *MockDirectory) Categories(ctx context.Context) ([]string, error) {
	m.record("Categories")
	return m.CategoriesResult, m.CategoriesErr
}

func (m *MockDirectory) CreateChannel(ctx context.Context, draft models.ChannelDraft) (*models.Channel, error) {
	m.record("CreateChannel")
	m.mu.Lock()
	m.CreatedDraft = &draft
	m.mu.Unlock()
	return m.CreateResult, m.CreateErr
}

func (m *MockDirectory) UpdateChannel(ctx context.Context, id string, draft models.ChannelDraft) (*models.Channel, error) {
	m.record("UpdateChannel")
	m.mu.Lock()
	m.UpdatedDraft = &draft
	m.mu.Unlock()
	return m.UpdateResult, m.UpdateErr
}

func (m *MockDirectory) DeleteChannel(ctx context.Context, id string) error {
	m.record("DeleteChannel")
	return m.DeleteErr
}

func (m *MockDirectory) M3U8(ctx context.Context, id string) ([]string, error) {
	m.record("M3U8")
	return m.M3U8Result, m.M3U8Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

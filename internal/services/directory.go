// Channel directory API implementation of [Directory]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/esterlin12/tvplus/internal/models"
	"golang.org/x/oauth2"
)

// apiPrefix is prepended to every endpoint; the backend mounts its router under /api.
const apiPrefix = "/api"

var _ Directory = (*DirectoryService)(nil)

// APIError is a non-2xx backend response carrying the server's detail message.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("directory API error: status %d", e.StatusCode)
	}
	return e.Detail
}

// DirectoryService implements [Directory] against the channel directory backend.
//
// The bearer credential is held as an [oauth2.Token] and attached to each
// request by doRequest. SetToken and ClearToken are the only writers; both are
// synchronous, so there is no window where a request observes a stale token
// after an identity transition commits.
type DirectoryService struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewDirectoryService creates a new directory client for the given base URL.
func NewDirectoryService(baseURL string, client *http.Client) *DirectoryService {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &DirectoryService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// SetToken installs the bearer credential used for subsequent requests.
func (s *DirectoryService) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &oauth2.Token{AccessToken: token}
}

// ClearToken removes the bearer credential.
func (s *DirectoryService) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

func (s *DirectoryService) bearer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// doRequest performs an HTTP request against the directory API, encoding body
// as JSON when present and decoding the response into result. Non-2xx
// responses are returned as [*APIError] with the backend's detail message.
func (s *DirectoryService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	apiURL := s.baseURL + apiPrefix + endpoint

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if tok := s.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// loginResponse mirrors the backend's token envelope.
type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the account identity.
//
// The token is returned, not installed; the session manager decides when the
// credential becomes active.
func (s *DirectoryService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	payload := map[string]string{"username": username, "password": password}

	var resp loginResponse
	if err := s.doRequest(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return "", nil, err
	}

	return resp.AccessToken, &resp.User, nil
}

// Register creates an account. The caller is expected to log in afterwards.
func (s *DirectoryService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}

	var user models.User
	if err := s.doRequest(ctx, http.MethodPost, "/auth/register", payload, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Me returns the identity behind the installed bearer token.
func (s *DirectoryService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.doRequest(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Channels lists public channels. Both filters are optional and combined with
// logical AND by the backend when present.
func (s *DirectoryService) Channels(ctx context.Context, search, category string) ([]models.Channel, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	if category != "" {
		params.Set("category", category)
	}

	endpoint := "/channels"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var channels []models.Channel
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// MyChannels lists the authenticated caller's channels.
func (s *DirectoryService) MyChannels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := s.doRequest(ctx, http.MethodGet, "/my-channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// Categories returns the distinct category set for filter controls.
func (s *DirectoryService) Categories(ctx context.Context) ([]string, error) {
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// CreateChannel submits a new channel entry.
func (s *DirectoryService) CreateChannel(ctx context.Context, draft models.ChannelDraft) (*models.Channel, error) {
	var channel models.Channel
	if err := s.doRequest(ctx, http.MethodPost, "/channels", draft, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// UpdateChannel replaces an existing channel entry. Ownership is enforced server-side.
func (s *DirectoryService) UpdateChannel(ctx context.Context, id string, draft models.ChannelDraft) (*models.Channel, error) {
	var channel models.Channel
	if err := s.doRequest(ctx, http.MethodPut, "/channels/"+id, draft, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// DeleteChannel removes a channel entry. Ownership is enforced server-side.
func (s *DirectoryService) DeleteChannel(ctx context.Context, id string) error {
	return s.doRequest(ctx, http.MethodDelete, "/channels/"+id, nil, nil)
}

// M3U8 returns the current stream URLs for a channel (privileged endpoint).
func (s *DirectoryService) M3U8(ctx context.Context, id string) ([]string, error) {
	var resp struct {
		M3U8URLs []string `json:"m3u8_urls"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/channels/"+id+"/m3u8", nil, &resp); err != nil {
		return nil, err
	}
	return resp.M3U8URLs, nil
}

// Health reports backend availability.
func (s *DirectoryService) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// package services defines interface Directory for interacting with the channel directory HTTP API
package services

import (
	"context"

	"github.com/esterlin12/tvplus/internal/models"
)

// Directory defines the backend surface the client core consumes.
//
// Implemented by [DirectoryService]; mocked in tests.
type Directory interface {
	// SetToken installs the bearer credential attached to subsequent requests.
	// Only the session manager writes the credential.
	SetToken(token string)

	// ClearToken removes the bearer credential.
	ClearToken()

	// Login exchanges credentials for a bearer token and the account identity.
	Login(ctx context.Context, username, password string) (string, *models.User, error)

	// Register creates an account. It does not authenticate the caller.
	Register(ctx context.Context, username, email, password string) (*models.User, error)

	// Me returns the identity behind the installed bearer token.
	Me(ctx context.Context) (*models.User, error)

	// Channels lists public channels matching the optional search term and category.
	Channels(ctx context.Context, search, category string) ([]models.Channel, error)

	// MyChannels lists channels owned by the authenticated caller.
	MyChannels(ctx context.Context) ([]models.Channel, error)

	// Categories returns the distinct category set for filter controls.
	Categories(ctx context.Context) ([]string, error)

	// CreateChannel submits a new channel entry.
	CreateChannel(ctx context.Context, draft models.ChannelDraft) (*models.Channel, error)

	// UpdateChannel replaces an existing channel entry.
	UpdateChannel(ctx context.Context, id string, draft models.ChannelDraft) (*models.Channel, error)

	// DeleteChannel removes a channel entry.
	DeleteChannel(ctx context.Context, id string) error

	// M3U8 returns the current stream URLs for a channel (privileged endpoint).
	M3U8(ctx context.Context, id string) ([]string, error)
}

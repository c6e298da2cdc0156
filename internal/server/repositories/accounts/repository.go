// Package accounts persists the Account entity, including the single
// refresh-token slot that backs the one-active-session contract.
package accounts

import (
	"context"

	"videohub/internal/server/models"
)

type Repository interface {
	// Create inserts a new account and returns it with id and timestamps
	// filled in. A username/email uniqueness violation comes back as
	// common.ErrConflict.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByID returns the full account row, credential columns included.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// GetByLogin matches on stored (lowercased) username or email.
	GetByLogin(ctx context.Context, username, email string) (*models.Account, error)

	// GetByUsername matches on the stored (lowercased) username only.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// SetRefreshToken overwrites the stored refresh token. Any previously
	// stored value is invalidated by the overwrite.
	SetRefreshToken(ctx context.Context, id, token string) error

	// ClearRefreshToken unsets the stored refresh token (NULL, not empty
	// string) so later refresh comparisons can never spuriously match.
	ClearRefreshToken(ctx context.Context, id string) error

	// UpdatePasswordHash replaces the stored digest. The plaintext never
	// reaches this layer.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// UpdateDetails mutates fullname and email and returns the fresh row.
	UpdateDetails(ctx context.Context, id, fullname, email string) (*models.Account, error)

	// UpdateAvatar / UpdateCover persist a new media reference.
	UpdateAvatar(ctx context.Context, id, url string) (*models.Account, error)
	UpdateCover(ctx context.Context, id, url string) (*models.Account, error)

	// AppendWatch appends a video reference to the account's watch history.
	// Duplicates are allowed; positions only ever grow.
	AppendWatch(ctx context.Context, accountID, videoID string) error
}

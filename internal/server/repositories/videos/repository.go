// Package videos reads the Video collection; this backend only resolves
// watch-history references and the owner preview fields.
package videos

import (
	"context"

	"videohub/internal/server/models"
)

type Repository interface {
	// WatchHistory resolves the account's stored sequence of video
	// references into full records, in stored order, each annotated with a
	// single owner summary (nil when the owner row is gone).
	WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error)

	// GetByID returns one video row.
	GetByID(ctx context.Context, id string) (*models.Video, error)
}

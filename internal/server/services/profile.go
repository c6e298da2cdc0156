package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"videohub/internal/common"
	"videohub/internal/logging"
	"videohub/internal/server/models"
	"videohub/internal/server/repositories/repomanager"
)

// ProfileService builds the two read-side aggregation views: the channel
// summary and the resolved watch history. It reads the persisted Account,
// Video and Subscription collections only and is independent of the auth
// flow.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "profile_service"),
	}
}

// ChannelProfile looks up the channel by lowercased username and computes
// the subscription figures. viewerID is nil for anonymous viewers, giving
// IsSubscribed=false. Credential columns never reach the projection.
func (s *ProfileService) ChannelProfile(ctx context.Context, viewerID *string, channelUsername string) (*models.ChannelProfile, error) {
	username := strings.ToLower(strings.TrimSpace(channelUsername))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
	}

	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: channel does not exist", common.ErrNotFound)
		}
		s.logger.Error(ctx, "channel lookup failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	stats, err := s.repomanager.Subscriptions(s.db).Stats(ctx, account.ID, viewerID)
	if err != nil {
		s.logger.Error(ctx, "subscription stats failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	return &models.ChannelProfile{
		ID:                account.ID,
		Fullname:          account.Fullname,
		Username:          account.Username,
		Email:             account.Email,
		AvatarURL:         account.AvatarURL,
		CoverURL:          account.CoverURL,
		SubscribersCount:  stats.SubscribersCount,
		SubscribedToCount: stats.SubscribedToCount,
		IsSubscribed:      stats.IsSubscribed,
	}, nil
}

// WatchHistory resolves the account's stored video references, in stored
// order, with one denormalized owner summary per entry. An account with an
// empty history gets an empty list, not an error; only a missing account is
// NotFound.
func (s *ProfileService) WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error) {
	if _, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		return nil, common.ErrInternal
	}

	entries, err := s.repomanager.Videos(s.db).WatchHistory(ctx, accountID)
	if err != nil {
		s.logger.Error(ctx, "watch history query failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	return entries, nil
}

// RecordView appends a video reference to the account's watch history.
// Duplicates are allowed; the sequence is append-only from the caller's
// perspective.
func (s *ProfileService) RecordView(ctx context.Context, accountID, videoID string) error {
	if _, err := s.repomanager.Videos(s.db).GetByID(ctx, videoID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: video does not exist", common.ErrNotFound)
		}
		return common.ErrInternal
	}

	if err := s.repomanager.Accounts(s.db).AppendWatch(ctx, accountID, videoID); err != nil {
		s.logger.Error(ctx, "watch history append failed", "error", err.Error())
		return common.ErrInternal
	}

	return nil
}

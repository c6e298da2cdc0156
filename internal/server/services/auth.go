// Package services contains the server-side business logic: the
// authentication/session flow and the profile aggregation queries.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"videohub/internal/common"
	"videohub/internal/dbx"
	"videohub/internal/logging"
	"videohub/internal/server/auth"
	"videohub/internal/server/models"
	"videohub/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterParams carries the validated-at-transport registration input. The
// media references are produced by the caller (upload happens before this
// flow runs); this flow only checks that an avatar reference resulted.
type RegisterParams struct {
	Fullname  string
	Email     string
	Username  string
	Password  string
	AvatarURL string
	CoverURL  *string
}

// AuthService orchestrates register/login/logout/refresh/change-password
// over the account store, the password hasher and the token service.
//
// The session contract is single-active-session: the account row holds at
// most one live refresh token, and every login or refresh overwrites it. A
// refresh racing a concurrent login may therefore invalidate a token issued
// moments earlier; that is accepted behavior, not a bug.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenService
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *auth.TokenService, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "auth_service"),
	}
}

// Register creates a new account with a hashed password. The returned
// account is sanitized: no password hash, no refresh token.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*models.Account, error) {
	fullname := strings.TrimSpace(p.Fullname)
	email := strings.ToLower(strings.TrimSpace(p.Email))
	username := strings.ToLower(strings.TrimSpace(p.Username))

	if fullname == "" || email == "" || username == "" || strings.TrimSpace(p.Password) == "" {
		return nil, fmt.Errorf("%w: all fields are required", common.ErrValidation)
	}
	if strings.TrimSpace(p.AvatarURL) == "" {
		return nil, fmt.Errorf("%w: avatar is required", common.ErrValidation)
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, common.ErrInternal
	}

	account := &models.Account{
		Username:     username,
		Email:        email,
		Fullname:     fullname,
		PasswordHash: hash,
		AvatarURL:    strings.TrimSpace(p.AvatarURL),
		CoverURL:     p.CoverURL,
	}

	repo := s.repomanager.Accounts(s.db)
	created, err := repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: user with same username or email exists", common.ErrConflict)
		}
		s.logger.Error(ctx, "account create failed", "error", err.Error())
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "account registered", "username", created.Username)
	return created.Sanitized(), nil
}

// Login verifies credentials by username or email and, on success, issues a
// fresh token pair. The new refresh token overwrites any previously stored
// one, so a second login invalidates the first session.
func (s *AuthService) Login(ctx context.Context, username, email, password string) (*TokenPair, *models.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" && email == "" {
		return nil, nil, fmt.Errorf("%w: username or email is required", common.ErrValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		s.logger.Error(ctx, "account lookup failed", "error", err.Error())
		return nil, nil, common.ErrInternal
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, nil, fmt.Errorf("%w: incorrect password", common.ErrUnauthorized)
	}

	pair, err := s.generateTokenPair(ctx, s.db, account.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "login", "username", account.Username)
	return pair, account.Sanitized(), nil
}

// Refresh validates a presented refresh token, checks it is still the one on
// record for the account (anti-replay: a rotated-away or cleared token must
// be rejected), and rotates both tokens. The comparison and the overwrite
// run in one transaction.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return nil, fmt.Errorf("%w: refresh token is required", common.ErrUnauthorized)
	}

	accountID, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		s.logger.Debug(ctx, "refresh rejected", "token", logging.MaskToken(presented))
		return nil, fmt.Errorf("%w: invalid refresh token", common.ErrUnauthorized)
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.GetByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("%w: invalid refresh token", common.ErrUnauthorized)
		}

		// A cleared slot scans as empty and never equals a signed token.
		if account.RefreshToken == "" || account.RefreshToken != presented {
			return fmt.Errorf("%w: refresh token is expired or already used", common.ErrUnauthorized)
		}

		var genErr error
		pair, genErr = s.generateTokenPair(ctx, tx, accountID)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout unconditionally clears the stored refresh token, revoking the
// session. The issued access token stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	repo := s.repomanager.Accounts(s.db)
	if err := repo.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		s.logger.Error(ctx, "logout failed", "error", err.Error())
		return common.ErrInternal
	}
	s.logger.Info(ctx, "logout", "account_id", accountID)
	return nil
}

// ChangePassword re-hashes and persists the new password after verifying the
// old one. The stored refresh token is deliberately left in place, matching
// the reference behavior; see DESIGN.md.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", common.ErrValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		return common.ErrInternal
	}

	if !s.hasher.Verify(oldPassword, account.PasswordHash) {
		return fmt.Errorf("%w: incorrect old password", common.ErrUnauthorized)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrInternal
	}

	if err := repo.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		s.logger.Error(ctx, "password update failed", "error", err.Error())
		return common.ErrInternal
	}

	s.logger.Info(ctx, "password changed", "account_id", accountID)
	return nil
}

// GetCurrentUser returns the sanitized account for an authenticated principal.
func (s *AuthService) GetCurrentUser(ctx context.Context, accountID string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		return nil, common.ErrInternal
	}
	return account.Sanitized(), nil
}

// UpdateDetails mutates fullname and email.
func (s *AuthService) UpdateDetails(ctx context.Context, accountID, fullname, email string) (*models.Account, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullname == "" || email == "" {
		return nil, fmt.Errorf("%w: fullname and email are required", common.ErrValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.UpdateDetails(ctx, accountID, fullname, email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		case errors.Is(err, common.ErrConflict):
			return nil, fmt.Errorf("%w: email already in use", common.ErrConflict)
		}
		return nil, common.ErrInternal
	}
	return account.Sanitized(), nil
}

// UpdateAvatar persists a new avatar reference produced by the media store.
func (s *AuthService) UpdateAvatar(ctx context.Context, accountID, url string) (*models.Account, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: avatar is required", common.ErrValidation)
	}
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.UpdateAvatar(ctx, accountID, url)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		return nil, common.ErrInternal
	}
	return account.Sanitized(), nil
}

// UpdateCover persists a new cover reference produced by the media store.
func (s *AuthService) UpdateCover(ctx context.Context, accountID, url string) (*models.Account, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: cover image is required", common.ErrValidation)
	}
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.UpdateCover(ctx, accountID, url)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", common.ErrNotFound)
		}
		return nil, common.ErrInternal
	}
	return account.Sanitized(), nil
}

// generateTokenPair issues both tokens and persists the refresh token onto
// the account. Any lower-level failure is re-wrapped as ErrInternal so
// callers see a uniform "token generation failed" signal instead of storage
// or signing internals.
func (s *AuthService) generateTokenPair(ctx context.Context, db dbx.DBTX, accountID string) (*TokenPair, error) {
	repo := s.repomanager.Accounts(db)

	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: token generation failed", common.ErrInternal)
	}

	access, err := s.tokens.IssueAccess(account.ID, account.Email, account.Username, account.Fullname)
	if err != nil {
		return nil, fmt.Errorf("%w: token generation failed", common.ErrInternal)
	}

	refresh, err := s.tokens.IssueRefresh(account.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: token generation failed", common.ErrInternal)
	}

	if err := repo.SetRefreshToken(ctx, account.ID, refresh); err != nil {
		return nil, fmt.Errorf("%w: token generation failed", common.ErrInternal)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

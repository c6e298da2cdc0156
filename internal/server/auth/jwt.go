// Package auth implements credential hashing and the two kinds of signed
// session tokens (access and refresh).
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"videohub/internal/common"
)

// AccessClaims is the access-token payload. The account id travels in the
// registered Subject claim; the profile fields are carried so ordinary
// requests need no account lookup.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// RefreshClaims is the refresh-token payload: account id only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// AccessPayload is the verified content of an access token, handed to the
// transport layer as the authenticated principal.
type AccessPayload struct {
	AccountID string
	Email     string
	Username  string
	Fullname  string
}

// TokenService issues and verifies both token kinds. Secrets and lifetimes
// are process-wide configuration, loaded once at startup; rotation is not
// supported. Verification is pure and safe for unlimited parallelism.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTokenService(accessSecret, refreshSecret []byte, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssueAccess signs a short-lived access token for the account.
func (s *TokenService) IssueAccess(accountID, email, username, fullname string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
		},
		Email:    email,
		Username: username,
		Fullname: fullname,
	})
	return token.SignedString(s.accessSecret)
}

// IssueRefresh signs a long-lived refresh token carrying only the account id.
// The jti makes every issued token distinct, so rotation always produces a
// new string even within one clock second.
func (s *TokenService) IssueRefresh(accountID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
		},
	})
	return token.SignedString(s.refreshSecret)
}

// VerifyAccess parses and validates an access token. Any failure (bad
// signature, expired, malformed) comes back as common.ErrInvalidToken.
func (s *TokenService) VerifyAccess(tokenString string) (*AccessPayload, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &AccessPayload{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Username:  claims.Username,
		Fullname:  claims.Fullname,
	}, nil
}

// VerifyRefresh parses and validates a refresh token and returns the account
// id it was issued for.
func (s *TokenService) VerifyRefresh(tokenString string) (string, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

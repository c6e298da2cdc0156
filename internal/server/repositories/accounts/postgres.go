package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"videohub/internal/common"
	"videohub/internal/dbx"
	"videohub/internal/server/models"
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, fullname, password_hash, avatar_url, cover_url, refresh_token, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	var cover, refresh sql.NullString
	err := row.Scan(
		&account.ID, &account.Username, &account.Email, &account.Fullname,
		&account.PasswordHash, &account.AvatarURL, &cover, &refresh,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if cover.Valid {
		account.CoverURL = &cover.String
	}
	if refresh.Valid {
		account.RefreshToken = refresh.String
	}
	return account, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, email, fullname, password_hash, avatar_url, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	var cover sql.NullString
	if account.CoverURL != nil {
		cover = sql.NullString{String: *account.CoverURL, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.Fullname,
		account.PasswordHash, account.AvatarURL, cover,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, username, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1 OR email = $2`
	return scanAccount(r.db.QueryRowContext(ctx, query, username, email))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	query := `UPDATE accounts SET refresh_token = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, token)
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, id string) error {
	// NULL, not empty string: a revoked session must never compare equal
	// to any presented token.
	query := `UPDATE accounts SET refresh_token = NULL, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, hash)
}

func (r *PostgresRepository) UpdateDetails(ctx context.Context, id, fullname, email string) (*models.Account, error) {
	query := `
		UPDATE accounts SET fullname = $2, email = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, fullname, email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id, url string) (*models.Account, error) {
	query := `
		UPDATE accounts SET avatar_url = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRowContext(ctx, query, id, url))
}

func (r *PostgresRepository) UpdateCover(ctx context.Context, id, url string) (*models.Account, error) {
	query := `
		UPDATE accounts SET cover_url = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRowContext(ctx, query, id, url))
}

func (r *PostgresRepository) AppendWatch(ctx context.Context, accountID, videoID string) error {
	query := `INSERT INTO watch_history (account_id, video_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, accountID, videoID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// exec runs an UPDATE that must touch exactly one account row.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

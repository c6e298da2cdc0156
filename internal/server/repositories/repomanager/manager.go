// Package repomanager vends repository implementations bound to a database
// handle and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"videohub/internal/dbx"
	"videohub/internal/server/repositories/accounts"
	"videohub/internal/server/repositories/subscriptions"
	"videohub/internal/server/repositories/videos"
)

// RepositoryManager hands out repositories bound to the given DBTX, so the
// same constructor works on a plain connection or inside a transaction.
type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	Videos(db dbx.DBTX) videos.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}

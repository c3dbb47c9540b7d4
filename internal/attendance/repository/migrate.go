package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/orfevre/attendance-backend/pkg/database"
)

// Migrate creates missing tables in one transaction. Existing tables are left as they are.
func Migrate(ctx context.Context, db *database.DB) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, Schema()); err != nil {
			return database.AsAppError("migrate schema", err)
		}
		return nil
	})
}

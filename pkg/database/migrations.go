package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes not expressed in the
// plain migration files, for the free-text fields the public API searches.
func CreateGINIndexes(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_meetings_summary_gin
		ON meetings USING gin(to_tsvector('english', COALESCE(summary, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create meetings summary GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_city_matters_summary_gin
		ON city_matters USING gin(to_tsvector('english', COALESCE(canonical_summary, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create city_matters summary GIN index: %w", err)
	}

	return nil
}

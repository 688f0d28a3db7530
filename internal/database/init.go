package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/callmaker24/segmentation/internal/database/schema"
)

// InitializeDatabase creates the tables and indexes that do not exist yet
func InitializeDatabase(ctx context.Context, db *sql.DB) error {
	for _, query := range schema.Statements() {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS learned_knowledge (
	id TEXT NOT NULL,
	question TEXT PRIMARY KEY,
	answer TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ignored_questions (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	question TEXT NOT NULL,
	asked_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ignored_asked_at ON ignored_questions(asked_at);
`

// InitSchema creates the tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

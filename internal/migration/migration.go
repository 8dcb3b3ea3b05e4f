package migration

import (
	"context"

	"savdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range r.steps() {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return errors.DatabaseError("failed to "+step.name, err)
		}
	}
	return nil
}

type step struct {
	name string
	sql  string
}

// Statements returns the ordered DDL, mainly for printing with the migrate command.
func (r *MigrationRunner) Statements() []string {
	steps := r.steps()
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.sql
	}
	return out
}

func (r *MigrationRunner) steps() []step {
	return []step{
		{name: "create datasets table", sql: `
		CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			original_filename TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			row_count INTEGER NOT NULL DEFAULT 0,
			variables JSONB NOT NULL DEFAULT '[]'::jsonb,
			columns JSONB NOT NULL DEFAULT '{}'::jsonb,
			status VARCHAR(32) NOT NULL DEFAULT 'processing',
			error_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
		{name: "create filter_sessions table", sql: `
		CREATE TABLE IF NOT EXISTS filter_sessions (
			id TEXT PRIMARY KEY,
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			filters JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
		{name: "create datasets created_at index", sql: `
		CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at DESC)`},
		{name: "create filter_sessions dataset index", sql: `
		CREATE INDEX IF NOT EXISTS idx_filter_sessions_dataset ON filter_sessions(dataset_id, created_at)`},
	}
}

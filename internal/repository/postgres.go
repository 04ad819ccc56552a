package repository

import (
	"context"
	"errors"
	"fmt"

	"notedev-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		meeting_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		meeting_type TEXT NOT NULL,
		prompt_template TEXT NOT NULL,
		output_format TEXT NOT NULL,
		fields JSONB NOT NULL DEFAULT '[]',
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		format TEXT NOT NULL,
		note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		template_id TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
		ai_model TEXT NOT NULL,
		tokens_used INTEGER,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_note_id_idx ON documents (note_id)`,
}

// NewPostgresPool connects to connString and creates the schema.
func NewPostgresPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// templateWriteError maps a lost race on templates.name to the same error
// the service reports for a name it saw was taken.
func templateWriteError(err error) error {
	if code, _ := pgErrorCode(err); code == pgUniqueViolation {
		return domain.ErrTemplateNameTaken
	}
	return err
}

// documentWriteError reports a missing parent row like the other backends.
func documentWriteError(err error) error {
	code, constraint := pgErrorCode(err)
	if code != pgForeignKeyViolation {
		return err
	}
	if constraint == "documents_template_id_fkey" {
		return domain.ErrTemplateNotFound
	}
	return domain.ErrNoteNotFound
}

func notFoundOr(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}

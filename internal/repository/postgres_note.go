package repository

import (
	"context"
	"fmt"
	"strings"

	"notedev-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, title, content, meeting_type, created_at, updated_at`

type postgresNoteRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &postgresNoteRepository{pool: pool}
}

func (r *postgresNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.Title, note.Content, note.MeetingType, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *postgresNoteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)

	note, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", notFoundOr(err, domain.ErrNoteNotFound))
	}
	return note, nil
}

func (r *postgresNoteRepository) List(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.MeetingType != "" {
		args = append(args, filter.MeetingType)
		where = append(where, fmt.Sprintf("meeting_type = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	return notes, rows.Err()
}

func (r *postgresNoteRepository) Update(ctx context.Context, note *domain.Note) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notes SET title = $2, content = $3, meeting_type = $4, updated_at = $5 WHERE id = $1`,
		note.ID, note.Title, note.Content, note.MeetingType, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update note: %w", domain.ErrNoteNotFound)
	}
	return nil
}

func (r *postgresNoteRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete note: %w", domain.ErrNoteNotFound)
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var note domain.Note
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &note.MeetingType, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	return &note, nil
}

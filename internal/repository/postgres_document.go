package repository

import (
	"context"
	"fmt"

	"notedev-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = `id, title, content, format, note_id, template_id, ai_model, tokens_used, created_at, updated_at`

type postgresDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &postgresDocumentRepository{pool: pool}
}

func (r *postgresDocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.Title, d.Content, d.Format, d.NoteID, d.TemplateID, d.AIModel, d.TokensUsed, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", documentWriteError(err))
	}
	return nil
}

func (r *postgresDocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)

	d, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", notFoundOr(err, domain.ErrDocumentNotFound))
	}
	return d, nil
}

func (r *postgresDocumentRepository) List(ctx context.Context, noteID string) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []interface{}
	if noteID != "" {
		query += ` WHERE note_id = $1`
		args = append(args, noteID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, d)
	}

	return documents, rows.Err()
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.Format, &d.NoteID, &d.TemplateID, &d.AIModel,
		&d.TokensUsed, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

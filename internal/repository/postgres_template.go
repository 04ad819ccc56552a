package repository

import (
	"context"
	"fmt"
	"strings"

	"notedev-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateColumns = `id, name, description, category, meeting_type, prompt_template, output_format, fields, is_default, is_active, created_at, updated_at`

type postgresTemplateRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &postgresTemplateRepository{pool: pool}
}

func (r *postgresTemplateRepository) Create(ctx context.Context, t *domain.Template) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO templates (`+templateColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Name, t.Description, t.Category, t.MeetingType, t.PromptTemplate, t.OutputFormat,
		fieldsOrEmpty(t.Fields), t.IsDefault, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", templateWriteError(err))
	}
	return nil
}

func (r *postgresTemplateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)

	t, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find template: %w", notFoundOr(err, domain.ErrTemplateNotFound))
	}
	return t, nil
}

func (r *postgresTemplateRepository) FindByName(ctx context.Context, name string) (*domain.Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE name = $1`, name)

	t, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("failed to query template by name: %w", notFoundOr(err, domain.ErrTemplateNotFound))
	}
	return t, nil
}

func (r *postgresTemplateRepository) List(ctx context.Context, filter domain.TemplateFilter) ([]*domain.Template, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.MeetingType != "" {
		args = append(args, filter.MeetingType)
		where = append(where, fmt.Sprintf("meeting_type = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}

	query := `SELECT ` + templateColumns + ` FROM templates`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (r *postgresTemplateRepository) Update(ctx context.Context, t *domain.Template) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE templates SET name = $2, description = $3, category = $4, meeting_type = $5,
			prompt_template = $6, output_format = $7, fields = $8, is_default = $9, is_active = $10,
			updated_at = $11
		WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Category, t.MeetingType, t.PromptTemplate, t.OutputFormat,
		fieldsOrEmpty(t.Fields), t.IsDefault, t.IsActive, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", templateWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update template: %w", domain.ErrTemplateNotFound)
	}
	return nil
}

func (r *postgresTemplateRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete template: %w", domain.ErrTemplateNotFound)
	}
	return nil
}

// fieldsOrEmpty keeps the JSONB column an array rather than null.
func fieldsOrEmpty(fields []domain.TemplateField) []domain.TemplateField {
	if fields == nil {
		return []domain.TemplateField{}
	}
	return fields
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.MeetingType, &t.PromptTemplate,
		&t.OutputFormat, &t.Fields, &t.IsDefault, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

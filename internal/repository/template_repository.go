package repository

import (
	"context"
	"fmt"
	"sort"

	"notedev-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) error
	FindByID(ctx context.Context, id string) (*domain.Template, error)
	FindByName(ctx context.Context, name string) (*domain.Template, error)
	List(ctx context.Context, filter domain.TemplateFilter) ([]*domain.Template, error)
	Update(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, id string) error
}

type couchTemplate struct {
	Rev     string `json:"_rev,omitempty"`
	DocType string `json:"doc_type"`
	domain.Template
}

type templateRepository struct {
	client *kivik.Client
	dbName string
}

func NewTemplateRepository(client *kivik.Client, dbName string) TemplateRepository {
	return &templateRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *templateRepository) Create(ctx context.Context, template *domain.Template) error {
	db := r.client.DB(r.dbName)

	doc := &couchTemplate{DocType: docTypeTemplate, Template: *template}
	if _, err := db.Put(ctx, couchID(docTypeTemplate, template.ID), doc); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (r *templateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	db := r.client.DB(r.dbName)

	var doc couchTemplate
	if err := getCouchDoc(ctx, db, couchID(docTypeTemplate, id), &doc, domain.ErrTemplateNotFound); err != nil {
		return nil, fmt.Errorf("failed to find template: %w", err)
	}

	return &doc.Template, nil
}

func (r *templateRepository) FindByName(ctx context.Context, name string) (*domain.Template, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"doc_type": docTypeTemplate,
			"name":     name,
		},
		"limit": 1,
	}

	var found *domain.Template
	_, _, err := findCouchPage(ctx, db, query, func(rows *kivik.ResultSet) error {
		var doc couchTemplate
		if err := rows.ScanDoc(&doc); err != nil {
			return err
		}
		found = &doc.Template
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query template by name: %w", err)
	}
	if found == nil {
		return nil, domain.ErrTemplateNotFound
	}

	return found, nil
}

func (r *templateRepository) List(ctx context.Context, filter domain.TemplateFilter) ([]*domain.Template, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]interface{}{"doc_type": docTypeTemplate}
	if filter.Category != "" {
		selector["category"] = filter.Category
	}
	if filter.MeetingType != "" {
		selector["meeting_type"] = filter.MeetingType
	}
	if filter.IsActive != nil {
		selector["is_active"] = *filter.IsActive
	}

	var templates []*domain.Template
	err := findCouchDocs(ctx, db, selector, func(rows *kivik.ResultSet) error {
		var doc couchTemplate
		if err := rows.ScanDoc(&doc); err != nil {
			return err
		}
		t := doc.Template
		templates = append(templates, &t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	sort.SliceStable(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, template *domain.Template) error {
	db := r.client.DB(r.dbName)
	docID := couchID(docTypeTemplate, template.ID)

	var existing couchTemplate
	if err := getCouchDoc(ctx, db, docID, &existing, domain.ErrTemplateNotFound); err != nil {
		return fmt.Errorf("failed to fetch existing template for update: %w", err)
	}

	doc := &couchTemplate{Rev: existing.Rev, DocType: docTypeTemplate, Template: *template}
	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	return nil
}

// Delete removes the template together with the documents generated from it.
func (r *templateRepository) Delete(ctx context.Context, id string) error {
	db := r.client.DB(r.dbName)

	children := map[string]interface{}{"doc_type": docTypeDocument, "template_id": id}
	if err := deleteCouchDoc(ctx, db, couchID(docTypeTemplate, id), domain.ErrTemplateNotFound, children); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

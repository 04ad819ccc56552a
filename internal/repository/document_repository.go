package repository

import (
	"context"
	"fmt"
	"sort"

	"notedev-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// DocumentRepository only inserts and reads: a document is never changed
// after the transformation that produced it.
type DocumentRepository interface {
	Create(ctx context.Context, document *domain.Document) error
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, noteID string) ([]*domain.Document, error)
}

type couchDocument struct {
	Rev     string `json:"_rev,omitempty"`
	DocType string `json:"doc_type"`
	domain.Document
}

type documentRepository struct {
	client *kivik.Client
	dbName string
}

func NewDocumentRepository(client *kivik.Client, dbName string) DocumentRepository {
	return &documentRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *documentRepository) Create(ctx context.Context, document *domain.Document) error {
	db := r.client.DB(r.dbName)

	if err := ensureCouchDoc(ctx, db, couchID(docTypeNote, document.NoteID), domain.ErrNoteNotFound); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if err := ensureCouchDoc(ctx, db, couchID(docTypeTemplate, document.TemplateID), domain.ErrTemplateNotFound); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	doc := &couchDocument{DocType: docTypeDocument, Document: *document}
	if _, err := db.Put(ctx, couchID(docTypeDocument, document.ID), doc); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *documentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	db := r.client.DB(r.dbName)

	var doc couchDocument
	if err := getCouchDoc(ctx, db, couchID(docTypeDocument, id), &doc, domain.ErrDocumentNotFound); err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc.Document, nil
}

func (r *documentRepository) List(ctx context.Context, noteID string) ([]*domain.Document, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]interface{}{"doc_type": docTypeDocument}
	if noteID != "" {
		selector["note_id"] = noteID
	}

	var documents []*domain.Document
	err := findCouchDocs(ctx, db, selector, func(rows *kivik.ResultSet) error {
		var doc couchDocument
		if err := rows.ScanDoc(&doc); err != nil {
			return err
		}
		d := doc.Document
		documents = append(documents, &d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	sort.SliceStable(documents, func(i, j int) bool {
		return documents[i].CreatedAt.After(documents[j].CreatedAt)
	})

	return documents, nil
}

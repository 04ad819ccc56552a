package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"notedev-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, id string) (*domain.Note, error)
	List(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id string) error
}

type couchNote struct {
	Rev     string `json:"_rev,omitempty"`
	DocType string `json:"doc_type"`
	domain.Note
}

type noteRepository struct {
	client *kivik.Client
	dbName string
}

func NewNoteRepository(client *kivik.Client, dbName string) NoteRepository {
	return &noteRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)

	doc := &couchNote{DocType: docTypeNote, Note: *note}
	if _, err := db.Put(ctx, couchID(docTypeNote, note.ID), doc); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *noteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	db := r.client.DB(r.dbName)

	var doc couchNote
	if err := getCouchDoc(ctx, db, couchID(docTypeNote, id), &doc, domain.ErrNoteNotFound); err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	return &doc.Note, nil
}

func (r *noteRepository) List(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]interface{}{"doc_type": docTypeNote}
	if filter.MeetingType != "" {
		selector["meeting_type"] = filter.MeetingType
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var notes []*domain.Note
	err := findCouchDocs(ctx, db, selector, func(rows *kivik.ResultSet) error {
		var doc couchNote
		if err := rows.ScanDoc(&doc); err != nil {
			return err
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(doc.Title), search) &&
			!strings.Contains(strings.ToLower(doc.Content), search) {
			return nil
		}
		note := doc.Note
		notes = append(notes, &note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})

	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)
	docID := couchID(docTypeNote, note.ID)

	var existing couchNote
	if err := getCouchDoc(ctx, db, docID, &existing, domain.ErrNoteNotFound); err != nil {
		return fmt.Errorf("failed to fetch existing note for update: %w", err)
	}

	doc := &couchNote{Rev: existing.Rev, DocType: docTypeNote, Note: *note}
	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

// Delete removes the note together with the documents generated from it.
func (r *noteRepository) Delete(ctx context.Context, id string) error {
	db := r.client.DB(r.dbName)

	children := map[string]interface{}{"doc_type": docTypeDocument, "note_id": id}
	if err := deleteCouchDoc(ctx, db, couchID(docTypeNote, id), domain.ErrNoteNotFound, children); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}

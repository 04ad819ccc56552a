package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"notedev-server/internal/domain"
)

// MemoryStore keeps notes, templates and documents in process memory. It
// backs the "memory" database driver used for local runs and tests; data
// is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	notes     map[string]domain.Note
	templates map[string]domain.Template
	documents map[string]domain.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes:     make(map[string]domain.Note),
		templates: make(map[string]domain.Template),
		documents: make(map[string]domain.Document),
	}
}

func (s *MemoryStore) Notes() NoteRepository         { return &memoryNoteRepository{s} }
func (s *MemoryStore) Templates() TemplateRepository { return &memoryTemplateRepository{s} }
func (s *MemoryStore) Documents() DocumentRepository { return &memoryDocumentRepository{s} }

type memoryNoteRepository struct{ s *MemoryStore }

func (r *memoryNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notes[note.ID] = *note
	return nil
}

func (r *memoryNoteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notes[id]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return &n, nil
}

func (r *memoryNoteRepository) List(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var notes []*domain.Note
	for _, n := range r.s.notes {
		if filter.MeetingType != "" && n.MeetingType != filter.MeetingType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(n.Title), search) &&
			!strings.Contains(strings.ToLower(n.Content), search) {
			continue
		}
		n := n
		notes = append(notes, &n)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

func (r *memoryNoteRepository) Update(ctx context.Context, note *domain.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notes[note.ID]; !ok {
		return domain.ErrNoteNotFound
	}
	r.s.notes[note.ID] = *note
	return nil
}

// Delete removes the note and, like the relational schema, its documents.
func (r *memoryNoteRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notes[id]; !ok {
		return domain.ErrNoteNotFound
	}
	delete(r.s.notes, id)
	for docID, d := range r.s.documents {
		if d.NoteID == id {
			delete(r.s.documents, docID)
		}
	}
	return nil
}

type memoryTemplateRepository struct{ s *MemoryStore }

func (r *memoryTemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(template) {
		return domain.ErrTemplateNameTaken
	}
	r.s.templates[template.ID] = *template
	return nil
}

func (r *memoryTemplateRepository) nameTaken(template *domain.Template) bool {
	for id, t := range r.s.templates {
		if t.Name == template.Name && id != template.ID {
			return true
		}
	}
	return false
}

func (r *memoryTemplateRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return &t, nil
}

func (r *memoryTemplateRepository) FindByName(ctx context.Context, name string) (*domain.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.templates {
		if t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

func (r *memoryTemplateRepository) List(ctx context.Context, filter domain.TemplateFilter) ([]*domain.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var templates []*domain.Template
	for _, t := range r.s.templates {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.MeetingType != "" && t.MeetingType != filter.MeetingType {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		t := t
		templates = append(templates, &t)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}

func (r *memoryTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[template.ID]; !ok {
		return domain.ErrTemplateNotFound
	}
	if r.nameTaken(template) {
		return domain.ErrTemplateNameTaken
	}
	r.s.templates[template.ID] = *template
	return nil
}

func (r *memoryTemplateRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[id]; !ok {
		return domain.ErrTemplateNotFound
	}
	delete(r.s.templates, id)
	for docID, d := range r.s.documents {
		if d.TemplateID == id {
			delete(r.s.documents, docID)
		}
	}
	return nil
}

type memoryDocumentRepository struct{ s *MemoryStore }

func (r *memoryDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notes[document.NoteID]; !ok {
		return domain.ErrNoteNotFound
	}
	if _, ok := r.s.templates[document.TemplateID]; !ok {
		return domain.ErrTemplateNotFound
	}
	r.s.documents[document.ID] = *document
	return nil
}

func (r *memoryDocumentRepository) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &d, nil
}

func (r *memoryDocumentRepository) List(ctx context.Context, noteID string) ([]*domain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var docs []*domain.Document
	for _, d := range r.s.documents {
		if noteID != "" && d.NoteID != noteID {
			continue
		}
		d := d
		docs = append(docs, &d)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

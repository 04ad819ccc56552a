package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"notedev-server/internal/domain"
	"notedev-server/internal/llm"
)

type mockNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{
		notes: make(map[string]*domain.Note),
	}
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := *note
	m.notes[note.ID] = &n
	return nil
}

func (m *mockNoteRepo) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, exists := m.notes[id]; exists {
		cp := *n
		return &cp, nil
	}
	return nil, domain.ErrNoteNotFound
}

func (m *mockNoteRepo) List(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notes []*domain.Note
	for _, n := range m.notes {
		if filter.MeetingType != "" && n.MeetingType != filter.MeetingType {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(n.Title+" "+n.Content), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *n
		notes = append(notes, &cp)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	return notes, nil
}

func (m *mockNoteRepo) Update(ctx context.Context, note *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notes[note.ID]; !exists {
		return domain.ErrNoteNotFound
	}
	n := *note
	m.notes[note.ID] = &n
	return nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notes[id]; !exists {
		return domain.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*domain.Template
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{
		templates: make(map[string]*domain.Template),
	}
}

func (m *mockTemplateRepo) Create(ctx context.Context, template *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *template
	m.templates[template.ID] = &t
	return nil
}

func (m *mockTemplateRepo) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, exists := m.templates[id]; exists {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTemplateNotFound
}

func (m *mockTemplateRepo) FindByName(ctx context.Context, name string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

func (m *mockTemplateRepo) List(ctx context.Context, filter domain.TemplateFilter) ([]*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var templates []*domain.Template
	for _, t := range m.templates {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.MeetingType != "" && t.MeetingType != filter.MeetingType {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		cp := *t
		templates = append(templates, &cp)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, template *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[template.ID]; !exists {
		return domain.ErrTemplateNotFound
	}
	t := *template
	m.templates[template.ID] = &t
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[id]; !exists {
		return domain.ErrTemplateNotFound
	}
	delete(m.templates, id)
	return nil
}

type mockDocumentRepo struct {
	mu        sync.Mutex
	documents []*domain.Document
	createErr error
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{}
}

func (m *mockDocumentRepo) Create(ctx context.Context, document *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	d := *document
	m.documents = append(m.documents, &d)
	return nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.documents {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *mockDocumentRepo) List(ctx context.Context, noteID string) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []*domain.Document
	for i := len(m.documents) - 1; i >= 0; i-- {
		d := m.documents[i]
		if noteID != "" && d.NoteID != noteID {
			continue
		}
		cp := *d
		docs = append(docs, &cp)
	}
	return docs, nil
}

func (m *mockDocumentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents)
}

type recordingNotifier struct {
	mu   sync.Mutex
	docs []*domain.Document
}

func (n *recordingNotifier) DocumentCreated(doc *domain.Document) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.docs = append(n.docs, doc)
}

// fakeProvider replays canned fragments. failAfter >= 0 makes the stream
// fail once that many fragments have been sent.
type fakeProvider struct {
	mu        sync.Mutex
	fragments []string
	result    *llm.Result
	err       error
	failAfter int
	requests  []llm.Request
}

func newFakeProvider(fragments ...string) *fakeProvider {
	return &fakeProvider{
		fragments: fragments,
		result: &llm.Result{
			Text:         strings.Join(fragments, ""),
			InputTokens:  100,
			OutputTokens: 50,
		},
		failAfter: -1,
	}
}

func (p *fakeProvider) record(req llm.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
}

func (p *fakeProvider) lastRequest() llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	p.record(req)
	if p.err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, p.err)
	}
	res := *p.result
	return &res, nil
}

func (p *fakeProvider) GenerateStream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	p.record(req)
	fragments := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(fragments)

		for i, f := range p.fragments {
			if i == p.failAfter {
				errs <- fmt.Errorf("%w: %w", domain.ErrProviderFailure, p.err)
				return
			}
			select {
			case fragments <- f:
			case <-ctx.Done():
				errs <- fmt.Errorf("%w: %w", domain.ErrStreamAborted, ctx.Err())
				return
			}
		}
		if p.failAfter >= len(p.fragments) {
			errs <- fmt.Errorf("%w: %w", domain.ErrProviderFailure, p.err)
		}
	}()

	return fragments, errs
}

var errUpstream = errors.New("upstream exploded")

package service

import (
	"context"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentNotifier is told about every materialized document.
type DocumentNotifier interface {
	DocumentCreated(doc *domain.Document)
}

type DocumentService struct {
	repo     repository.DocumentRepository
	aiModel  string
	notifier DocumentNotifier
	logger   *zap.Logger
}

func NewDocumentService(repo repository.DocumentRepository, aiModel string, notifier DocumentNotifier, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		repo:     repo,
		aiModel:  aiModel,
		notifier: notifier,
		logger:   logger,
	}
}

// Materialize stores the result of one transformation as a new document.
// The model recorded is the configured one, not whatever the provider reports.
func (s *DocumentService) Materialize(ctx context.Context, note *domain.Note, template *domain.Template, content string, tokensUsed *int) (*domain.Document, error) {
	now := time.Now().UTC()

	doc := &domain.Document{
		ID:         uuid.New().String(),
		Title:      DocumentTitle(note, template),
		Content:    content,
		Format:     string(template.OutputFormat),
		NoteID:     note.ID,
		TemplateID: template.ID,
		AIModel:    s.aiModel,
		TokensUsed: tokensUsed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("Document created from transformation",
		zap.String("document_id", doc.ID),
		zap.String("note_id", note.ID),
		zap.String("template_id", template.ID),
	)

	if s.notifier != nil {
		s.notifier.DocumentCreated(doc)
	}

	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, noteID string) ([]*domain.Document, error) {
	docs, err := s.repo.List(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return docs, nil
}

func (s *DocumentService) GetByID(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.repo.FindByID(ctx, documentID)
}

func DocumentTitle(note *domain.Note, template *domain.Template) string {
	return note.Title + " - " + template.Name
}

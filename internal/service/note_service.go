package service

import (
	"context"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NoteService struct {
	repo   repository.NoteRepository
	logger *zap.Logger
}

func NewNoteService(repo repository.NoteRepository, logger *zap.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
	}
}

func (s *NoteService) Create(ctx context.Context, req *domain.CreateNoteRequest) (*domain.Note, error) {
	now := time.Now().UTC()

	note := &domain.Note{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Content:     req.Content,
		MeetingType: req.MeetingType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("Note created",
		zap.String("note_id", note.ID),
		zap.String("meeting_type", string(note.MeetingType)),
	)

	return note, nil
}

func (s *NoteService) List(ctx context.Context, filter domain.NoteFilter) ([]*domain.Note, error) {
	notes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return notes, nil
}

func (s *NoteService) GetByID(ctx context.Context, noteID string) (*domain.Note, error) {
	return s.repo.FindByID(ctx, noteID)
}

func (s *NoteService) Update(ctx context.Context, noteID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.MeetingType != nil {
		note.MeetingType = *req.MeetingType
	}
	note.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("Note updated", zap.String("note_id", note.ID))

	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, noteID string) error {
	if err := s.repo.Delete(ctx, noteID); err != nil {
		return err
	}

	s.logger.Info("Note deleted", zap.String("note_id", noteID))
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/internal/prompt"
	"notedev-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateService struct {
	repo   repository.TemplateRepository
	logger *zap.Logger
}

func NewTemplateService(repo repository.TemplateRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		repo:   repo,
		logger: logger,
	}
}

func (s *TemplateService) Create(ctx context.Context, req *domain.CreateTemplateRequest) (*domain.Template, error) {
	if !prompt.HasNoteContent(req.PromptTemplate) {
		return nil, domain.ErrInvalidTemplate
	}

	if err := s.ensureNameFree(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template := &domain.Template{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		MeetingType:    req.MeetingType,
		PromptTemplate: req.PromptTemplate,
		OutputFormat:   req.OutputFormat,
		Fields:         req.Fields,
		IsDefault:      req.IsDefault,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info("Template created", zap.String("template_id", template.ID), zap.String("name", template.Name))

	return template, nil
}

func (s *TemplateService) List(ctx context.Context, filter domain.TemplateFilter) ([]*domain.Template, error) {
	templates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []*domain.Template{}
	}
	return templates, nil
}

func (s *TemplateService) GetByID(ctx context.Context, templateID string) (*domain.Template, error) {
	return s.repo.FindByID(ctx, templateID)
}

func (s *TemplateService) Update(ctx context.Context, templateID string, req *domain.UpdateTemplateRequest) (*domain.Template, error) {
	template, err := s.repo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != template.Name {
		if err := s.ensureNameFree(ctx, *req.Name, template.ID); err != nil {
			return nil, err
		}
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Category != nil {
		template.Category = *req.Category
	}
	if req.MeetingType != nil {
		template.MeetingType = *req.MeetingType
	}
	if req.PromptTemplate != nil {
		if !prompt.HasNoteContent(*req.PromptTemplate) {
			return nil, domain.ErrInvalidTemplate
		}
		template.PromptTemplate = *req.PromptTemplate
	}
	if req.OutputFormat != nil {
		template.OutputFormat = *req.OutputFormat
	}
	if req.Fields != nil {
		template.Fields = req.Fields
	}
	if req.IsDefault != nil {
		template.IsDefault = *req.IsDefault
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	template.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info("Template updated", zap.String("template_id", template.ID))

	return template, nil
}

func (s *TemplateService) Delete(ctx context.Context, templateID string) error {
	if err := s.repo.Delete(ctx, templateID); err != nil {
		return err
	}

	s.logger.Info("Template deleted", zap.String("template_id", templateID))
	return nil
}

// Seed upserts the given templates by name. Existing templates keep their
// id, activation state and creation time.
func (s *TemplateService) Seed(ctx context.Context, defaults []domain.CreateTemplateRequest) error {
	for i := range defaults {
		req := &defaults[i]
		if !prompt.HasNoteContent(req.PromptTemplate) {
			return fmt.Errorf("seed template %q: %w", req.Name, domain.ErrInvalidTemplate)
		}

		existing, err := s.repo.FindByName(ctx, req.Name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if _, err := s.Create(ctx, req); err != nil {
				return fmt.Errorf("seed template %q: %w", req.Name, err)
			}
		case err != nil:
			return fmt.Errorf("seed template %q: %w", req.Name, err)
		default:
			existing.Description = req.Description
			existing.Category = req.Category
			existing.MeetingType = req.MeetingType
			existing.PromptTemplate = req.PromptTemplate
			existing.OutputFormat = req.OutputFormat
			existing.Fields = req.Fields
			existing.IsDefault = req.IsDefault
			existing.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, existing); err != nil {
				return fmt.Errorf("seed template %q: %w", req.Name, err)
			}
		}

		s.logger.Info("Seeded template", zap.String("name", req.Name))
	}

	return nil
}

func (s *TemplateService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check template name: %w", err)
	}
	if existing.ID != selfID {
		return domain.ErrTemplateNameTaken
	}
	return nil
}

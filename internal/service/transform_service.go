package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/internal/llm"
	"notedev-server/internal/prompt"
	"notedev-server/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StreamEmitter delivers one event to the client. A non-nil error means the
// client is gone and the stream is abandoned.
type StreamEmitter func(event domain.StreamEvent) error

type relayState string

const (
	stateStreaming  relayState = "streaming"
	stateFinalizing relayState = "finalizing"
	stateDone       relayState = "done"
	stateErrored    relayState = "errored"
	stateAbandoned  relayState = "abandoned"
)

// Transformation is a resolved request: the note and template have been
// found and the prompts composed, but the provider has not been called.
type Transformation struct {
	Note     *domain.Note
	Template *domain.Template
	Request  llm.Request
}

type TransformService struct {
	notes     repository.NoteRepository
	templates repository.TemplateRepository
	documents *DocumentService
	provider  llm.Provider
	maxTokens int
	now       func() time.Time
	logger    *zap.Logger
}

func NewTransformService(
	notes repository.NoteRepository,
	templates repository.TemplateRepository,
	documents *DocumentService,
	provider llm.Provider,
	maxTokens int,
	logger *zap.Logger,
) *TransformService {
	return &TransformService{
		notes:     notes,
		templates: templates,
		documents: documents,
		provider:  provider,
		maxTokens: maxTokens,
		now:       time.Now,
		logger:    logger,
	}
}

// Prepare looks up the note and template concurrently and composes the
// prompts. A missing note or template fails before any provider call.
func (s *TransformService) Prepare(ctx context.Context, req *domain.TransformRequest) (*Transformation, error) {
	var (
		note     *domain.Note
		template *domain.Template
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		note, err = s.notes.FindByID(gctx, req.NoteID)
		return err
	})
	g.Go(func() error {
		var err error
		template, err = s.templates.FindByID(gctx, req.TemplateID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Transformation lookup failed",
			zap.String("note_id", req.NoteID),
			zap.String("template_id", req.TemplateID),
			zap.Error(err),
		)
		return nil, err
	}

	return &Transformation{
		Note:     note,
		Template: template,
		Request: llm.Request{
			System:    prompt.SystemPrompt(template),
			Prompt:    prompt.Render(template.PromptTemplate, note.Content, req.AdditionalContext, s.now()),
			MaxTokens: s.maxTokens,
		},
	}, nil
}

// Transform runs a blocking transformation and persists its result.
func (s *TransformService) Transform(ctx context.Context, req *domain.TransformRequest) (*domain.Document, error) {
	t, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Calling AI provider for transformation",
		zap.String("note_id", t.Note.ID),
		zap.String("template_id", t.Template.ID),
		zap.String("template_name", t.Template.Name),
		zap.Int("content_length", len(t.Note.Content)),
	)

	result, err := s.provider.Generate(ctx, t.Request)
	if err != nil {
		s.logger.Error("AI transformation failed",
			zap.String("note_id", t.Note.ID),
			zap.String("template_id", t.Template.ID),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrProviderFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
		}
		return nil, err
	}

	var tokensUsed *int
	if total := result.TotalTokens(); total > 0 {
		tokensUsed = &total
	}

	s.logger.Info("AI transformation completed",
		zap.String("note_id", t.Note.ID),
		zap.String("template_id", t.Template.ID),
		zap.Int("tokens_used", result.TotalTokens()),
		zap.Int("output_length", len(result.Text)),
	)

	return s.documents.Materialize(ctx, t.Note, t.Template, result.Text, tokensUsed)
}

// Stream relays provider fragments to emit as they arrive, then persists
// the assembled text and emits a done event carrying the document id.
//
// A provider failure emits a single error event and persists nothing.
// When ctx is cancelled or emit fails the client is considered gone: the
// provider call is cancelled, nothing is persisted and no terminal event is
// sent. The returned error describes why no document was produced.
func (s *TransformService) Stream(ctx context.Context, t *Transformation, emit StreamEmitter) (*domain.Document, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := s.logger.With(
		zap.String("note_id", t.Note.ID),
		zap.String("template_id", t.Template.ID),
	)
	log.Info("Starting AI streaming", zap.String("template_name", t.Template.Name))

	fragments, errs := s.provider.GenerateStream(ctx, t.Request)

	var (
		content    strings.Builder
		chunkCount int
		state      = stateStreaming
	)

	for fragment := range fragments {
		content.WriteString(fragment)
		chunkCount++

		if err := emit(domain.StreamEvent{Type: domain.StreamEventFragment, Chunk: fragment}); err != nil {
			state = stateAbandoned
			cancel()
			for range fragments {
			}
			<-errs
			log.Info("Client abandoned streaming transformation",
				zap.String("state", string(state)),
				zap.Int("chunk_count", chunkCount),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %w", domain.ErrStreamAborted, err)
		}
	}

	if err := <-errs; err != nil {
		if ctx.Err() != nil || errors.Is(err, domain.ErrStreamAborted) {
			state = stateAbandoned
			log.Info("Streaming transformation cancelled",
				zap.String("state", string(state)),
				zap.Int("chunk_count", chunkCount),
			)
			return nil, fmt.Errorf("%w: %w", domain.ErrStreamAborted, err)
		}

		state = stateErrored
		log.Error("Streaming transformation error",
			zap.String("state", string(state)),
			zap.Int("chunk_count", chunkCount),
			zap.Int("partial_content_length", content.Len()),
			zap.Error(err),
		)
		emit(domain.StreamEvent{Type: domain.StreamEventError, Error: "Transformation failed"})
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		state = stateAbandoned
		log.Info("Client left before finalization", zap.String("state", string(state)))
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamAborted, err)
	}

	state = stateFinalizing
	log.Info("AI streaming completed",
		zap.String("state", string(state)),
		zap.Int("chunk_count", chunkCount),
		zap.Int("output_length", content.Len()),
	)

	doc, err := s.documents.Materialize(ctx, t.Note, t.Template, content.String(), nil)
	if err != nil {
		state = stateErrored
		log.Error("Failed to persist streamed document", zap.String("state", string(state)), zap.Error(err))
		emit(domain.StreamEvent{Type: domain.StreamEventError, Error: "Transformation failed"})
		return nil, err
	}

	state = stateDone
	log.Debug("Streaming transformation finished", zap.String("state", string(state)), zap.String("document_id", doc.ID))
	emit(domain.StreamEvent{Type: domain.StreamEventDone, DocumentID: doc.ID})

	return doc, nil
}

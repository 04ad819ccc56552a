package handler

import (
	"errors"
	"net/http"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/internal/service"
	"notedev-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type TransformHandler struct {
	service  *service.TransformService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewTransformHandler(service *service.TransformService, validate *validator.Validate, logger *zap.Logger) *TransformHandler {
	return &TransformHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// Transform runs a blocking transformation and returns the new document.
func (h *TransformHandler) Transform(w http.ResponseWriter, r *http.Request) {
	var req domain.TransformRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	doc, err := h.service.Transform(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err, transformFailedMessage)
		return
	}

	response.Created(w, doc)
}

// Stream relays the transformation as server-sent events. Lookup failures
// are reported as ordinary JSON errors before the event stream starts.
func (h *TransformHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req domain.TransformRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	t, err := h.service.Prepare(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err, transformFailedMessage)
		return
	}

	// Streams outlive the server write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug("Could not clear write deadline", zap.Error(err))
	}

	stream, err := response.NewEventStream(w)
	if err != nil {
		h.logger.Error("Streaming unsupported", zap.Error(err))
		response.InternalError(w, "Streaming not supported")
		return
	}

	emit := func(event domain.StreamEvent) error {
		return stream.Send(event)
	}

	if _, err := h.service.Stream(r.Context(), t, emit); err != nil && !errors.Is(err, domain.ErrStreamAborted) {
		h.logger.Warn("Streaming transformation ended with error",
			zap.String("note_id", req.NoteID),
			zap.String("template_id", req.TemplateID),
			zap.Error(err),
		)
	}
}

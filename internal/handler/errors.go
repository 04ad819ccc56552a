package handler

import (
	"errors"
	"net/http"

	"notedev-server/internal/domain"
	"notedev-server/internal/middleware"
	"notedev-server/pkg/response"

	"go.uber.org/zap"
)

const (
	transformFailedMessage = "Failed to transform note"
	rateLimitedMessage     = middleware.TooManyRequestsMessage
)

// writeError maps service errors to status codes. fallback is the message
// shown for anything that is not a client error.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNoteNotFound):
		response.NotFound(w, "Note not found")
	case errors.Is(err, domain.ErrTemplateNotFound):
		response.NotFound(w, "Template not found")
	case errors.Is(err, domain.ErrDocumentNotFound):
		response.NotFound(w, "Document not found")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "Not found")
	case errors.Is(err, domain.ErrInvalidTemplate):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvalidExport):
		response.BadRequest(w, "Invalid or missing format parameter")
	case errors.Is(err, domain.ErrTemplateNameTaken):
		response.Conflict(w, "Template name already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Unauthorized(w, "Invalid credentials")
	case errors.Is(err, domain.ErrProviderFailure):
		logger.Error(transformFailedMessage, zap.Error(err))
		response.BadGateway(w, transformFailedMessage)
	default:
		logger.Error(fallback, zap.Error(err))
		response.InternalError(w, fallback)
	}
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"notedev-server/internal/domain"
	"notedev-server/internal/service"
	"notedev-server/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documents *service.DocumentService
	exports   *service.ExportService
	logger    *zap.Logger
}

func NewDocumentHandler(documents *service.DocumentService, exports *service.ExportService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		exports:   exports,
		logger:    logger,
	}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context(), r.URL.Query().Get("note_id"))
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch documents")
		return
	}

	response.Success(w, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch document")
		return
	}

	response.Success(w, doc)
}

// Download serves the document as an attachment in the format named by the
// format query parameter.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	format := domain.ExportFormat(r.URL.Query().Get("format"))

	file, err := h.exports.Export(r.Context(), mux.Vars(r)["id"], format)
	if err != nil {
		writeError(w, h.logger, err, "Export failed")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Body)
}

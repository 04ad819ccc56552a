package handler

import (
	"net/http"

	"notedev-server/internal/domain"
	"notedev-server/internal/service"
	"notedev-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type NoteHandler struct {
	service  *service.NoteService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewNoteHandler(service *service.NoteService, validate *validator.Validate, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	note, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err, "Failed to create note")
		return
	}

	response.Created(w, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.NoteFilter{
		MeetingType: domain.MeetingType(q.Get("meeting_type")),
		Search:      q.Get("search"),
	}

	notes, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch notes")
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	note, err := h.service.GetByID(r.Context(), noteID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch note")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	var req domain.UpdateNoteRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	note, err := h.service.Update(r.Context(), noteID, &req)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update note")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), noteID); err != nil {
		writeError(w, h.logger, err, "Failed to delete note")
		return
	}

	response.Message(w, "Note deleted successfully")
}

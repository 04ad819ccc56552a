package handler

import (
	"net/http"
	"strconv"

	"notedev-server/internal/domain"
	"notedev-server/internal/service"
	"notedev-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	service  *service.TemplateService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewTemplateHandler(service *service.TemplateService, validate *validator.Validate, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TemplateFilter{
		Category:    domain.TemplateCategory(q.Get("category")),
		MeetingType: q.Get("meeting_type"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "is_active must be true or false")
			return
		}
		filter.IsActive = &active
	}

	templates, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch templates")
		return
	}

	response.Success(w, templates)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["id"]

	template, err := h.service.GetByID(r.Context(), templateID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch template")
		return
	}

	response.Success(w, template)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTemplateRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	template, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err, "Failed to create template")
		return
	}

	response.Created(w, template)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["id"]

	var req domain.UpdateTemplateRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	template, err := h.service.Update(r.Context(), templateID, &req)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update template")
		return
	}

	response.Success(w, template)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	templateID := mux.Vars(r)["id"]

	if err := h.service.Delete(r.Context(), templateID); err != nil {
		writeError(w, h.logger, err, "Failed to delete template")
		return
	}

	response.Message(w, "Template deleted successfully")
}

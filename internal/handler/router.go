package handler

import (
	"net/http"

	"notedev-server/internal/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Router struct {
	Auth      *AuthHandler
	Notes     *NoteHandler
	Templates *TemplateHandler
	Documents *DocumentHandler
	Transform *TransformHandler
	WebSocket *WebSocketHandler

	// AdminAuth guards template mutations.
	AdminAuth func(http.Handler) http.Handler
	// AILimit throttles the transformation routes; nil disables it.
	AILimit func(http.Handler) http.Handler

	CORSOrigins string
	CORSMethods string
	CORSHeaders string

	Logger *zap.Logger
}

func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(rt.Logger))
	r.Use(middleware.CORSMiddleware(rt.CORSOrigins, rt.CORSMethods, rt.CORSHeaders))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", rt.Auth.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", rt.Auth.Refresh).Methods("POST", "OPTIONS")

	api.HandleFunc("/notes", rt.Notes.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/notes", rt.Notes.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}", rt.Notes.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/{id}", rt.Notes.Update).Methods("PUT", "OPTIONS")
	api.HandleFunc("/notes/{id}", rt.Notes.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/templates", rt.Templates.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/templates/{id}", rt.Templates.Get).Methods("GET", "OPTIONS")

	admin := api.PathPrefix("/templates").Subrouter()
	if rt.AdminAuth != nil {
		admin.Use(rt.AdminAuth)
	}
	admin.HandleFunc("", rt.Templates.Create).Methods("POST")
	admin.HandleFunc("/{id}", rt.Templates.Update).Methods("PUT")
	admin.HandleFunc("/{id}", rt.Templates.Delete).Methods("DELETE")

	ai := api.PathPrefix("/ai").Subrouter()
	if rt.AILimit != nil {
		ai.Use(rt.AILimit)
	}
	ai.HandleFunc("/transform", rt.Transform.Transform).Methods("POST", "OPTIONS")
	ai.HandleFunc("/transform/stream", rt.Transform.Stream).Methods("POST", "OPTIONS")

	api.HandleFunc("/export/documents", rt.Documents.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/export/documents/{id}", rt.Documents.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/export/documents/{id}/download", rt.Documents.Download).Methods("GET", "OPTIONS")

	if rt.WebSocket != nil {
		r.HandleFunc("/ws", rt.WebSocket.HandleConnection)
	}

	r.HandleFunc("/health", Health).Methods("GET")
	r.HandleFunc("/", Root).Methods("GET")

	return r
}

package handler

import (
	"net/http"

	"notedev-server/pkg/response"
)

const serviceName = "notedev-server"

// Version is overridden at build time with -ldflags.
var Version = "dev"

func Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func Root(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "NoteDev API",
		"version": Version,
		"endpoints": map[string]string{
			"/api/notes":               "GET, POST",
			"/api/templates":           "GET, POST (admin)",
			"/api/ai/transform":        "POST",
			"/api/ai/transform/stream": "POST (text/event-stream)",
			"/api/export/documents":    "GET",
			"/ws":                      "WebSocket",
		},
	})
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"notedev-server/internal/domain"
	"notedev-server/internal/middleware"
	"notedev-server/internal/service"
	"notedev-server/internal/websocket"
	"notedev-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
	limiter  *middleware.RateLimiter
	logger   *zap.Logger
}

// NewWebSocketHandler accepts connections for manager. limiter may be nil;
// when set, it decides the client address recorded for each connection.
func NewWebSocketHandler(manager *websocket.Manager, readBufferSize, writeBufferSize int, allowedOrigins string, limiter *middleware.RateLimiter, logger *zap.Logger) *WebSocketHandler {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range origins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
		limiter: limiter,
		logger:  logger,
	}
}

func (h *WebSocketHandler) clientAddr(r *http.Request) string {
	if h.limiter != nil {
		return h.limiter.ClientKey(r)
	}
	return r.RemoteAddr
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if h.manager.Full() {
		h.logger.Warn("Rejecting WebSocket connection, limit reached", zap.String("remote_addr", r.RemoteAddr))
		response.ServiceUnavailable(w, "Too many connections")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := websocket.NewClient(uuid.New().String(), h.clientAddr(r), conn, h.manager)
	if !h.manager.Connect(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler runs streaming transformations requested over a
// WebSocket connection. Closing the connection abandons its streams.
// Requests draw from the same limiter as the HTTP transformation routes.
type WebSocketMessageHandler struct {
	transforms *service.TransformService
	validate   *validator.Validate
	limiter    *middleware.RateLimiter
	logger     *zap.Logger
}

func NewWebSocketMessageHandler(transforms *service.TransformService, validate *validator.Validate, limiter *middleware.RateLimiter, logger *zap.Logger) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{
		transforms: transforms,
		validate:   validate,
		limiter:    limiter,
		logger:     logger,
	}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeTransformRequest:
		return h.handleTransformRequest(client, msg)

	case websocket.TypePing:
		return h.handlePing(client)

	default:
		h.logger.Debug("Unknown WebSocket message type", zap.String("type", string(msg.Type)))
	}

	return nil
}

func (h *WebSocketMessageHandler) handleTransformRequest(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.TransformRequestPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return h.sendError(client, "", "Invalid request payload")
	}
	if err := h.validate.Struct(&payload); err != nil {
		return h.sendError(client, payload.RequestID, validationMessage(err).Error())
	}
	if h.limiter != nil && !h.limiter.Allow(client.RemoteAddr) {
		h.logger.Warn("Rate limit exceeded", zap.String("client_ip", client.RemoteAddr), zap.String("client_id", client.ID))
		return h.sendError(client, payload.RequestID, rateLimitedMessage)
	}

	ctx := client.Context()

	t, err := h.transforms.Prepare(ctx, payload.TransformRequest())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoteNotFound):
			return h.sendError(client, payload.RequestID, "Note not found")
		case errors.Is(err, domain.ErrTemplateNotFound):
			return h.sendError(client, payload.RequestID, "Template not found")
		default:
			h.logger.Error("Failed to prepare transformation", zap.Error(err))
			return h.sendError(client, payload.RequestID, transformFailedMessage)
		}
	}

	emit := func(event domain.StreamEvent) error {
		out, err := websocket.NewStreamMessage(payload.RequestID, event)
		if err != nil {
			return err
		}
		return client.SendMessage(out)
	}

	_, err = h.transforms.Stream(ctx, t, emit)
	if err != nil && !errors.Is(err, domain.ErrStreamAborted) {
		return err
	}
	return nil
}

func (h *WebSocketMessageHandler) handlePing(client *websocket.Client) error {
	pongMsg, err := websocket.NewMessage(websocket.TypePong, nil)
	if err != nil {
		return err
	}
	return client.SendMessage(pongMsg)
}

func (h *WebSocketMessageHandler) sendError(client *websocket.Client, requestID, message string) error {
	out, err := websocket.NewStreamMessage(requestID, domain.StreamEvent{Type: domain.StreamEventError, Error: message})
	if err != nil {
		return err
	}
	return client.SendMessage(out)
}

package websocket

import (
	"encoding/json"
	"time"

	"notedev-server/internal/domain"
)

type MessageType string

const (
	TypeTransformRequest MessageType = "transform_request"
	TypeFragment         MessageType = "fragment"
	TypeDone             MessageType = "done"
	TypeError            MessageType = "error"
	TypeDocumentCreated  MessageType = "document_created"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// TransformRequestPayload starts a streaming transformation. RequestID is
// chosen by the client and echoed on every event of that stream.
type TransformRequestPayload struct {
	RequestID         string         `json:"request_id" validate:"required"`
	NoteID            string         `json:"note_id" validate:"required"`
	TemplateID        string         `json:"template_id" validate:"required"`
	AdditionalContext map[string]any `json:"additional_context,omitempty"`
}

func (p *TransformRequestPayload) TransformRequest() *domain.TransformRequest {
	return &domain.TransformRequest{
		NoteID:            p.NoteID,
		TemplateID:        p.TemplateID,
		AdditionalContext: p.AdditionalContext,
	}
}

// StreamPayload carries one relay event for the request it belongs to.
type StreamPayload struct {
	RequestID string `json:"request_id,omitempty"`
	domain.StreamEvent
}

type DocumentCreatedPayload struct {
	DocumentID string    `json:"document_id"`
	NoteID     string    `json:"note_id"`
	TemplateID string    `json:"template_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

// NewStreamMessage wraps a relay event; the message type mirrors the event type.
func NewStreamMessage(requestID string, event domain.StreamEvent) (*Message, error) {
	return NewMessage(MessageType(event.Type), &StreamPayload{
		RequestID:   requestID,
		StreamEvent: event,
	})
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

package domain

type TransformRequest struct {
	NoteID            string         `json:"note_id" validate:"required"`
	TemplateID        string         `json:"template_id" validate:"required"`
	AdditionalContext map[string]any `json:"additional_context,omitempty"`
}

type StreamEventType string

const (
	StreamEventFragment StreamEventType = "fragment"
	StreamEventDone     StreamEventType = "done"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent is one frame of a streaming transformation. Exactly one
// done or error event terminates a stream that was not abandoned.
type StreamEvent struct {
	Type       StreamEventType `json:"type"`
	Chunk      string          `json:"chunk,omitempty"`
	DocumentID string          `json:"document_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}

package domain

import "time"

type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Format     string    `json:"format"`
	NoteID     string    `json:"note_id"`
	TemplateID string    `json:"template_id"`
	AIModel    string    `json:"ai_model"`
	TokensUsed *int      `json:"tokens_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportHTML     ExportFormat = "html"
)

// ExportedFile is a rendered document ready to be served as a download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

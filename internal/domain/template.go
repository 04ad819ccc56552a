package domain

import "time"

type TemplateCategory string

const (
	CategoryTechnical TemplateCategory = "technical"
	CategoryMedical   TemplateCategory = "medical"
	CategoryMeeting   TemplateCategory = "meeting"
	CategoryCustom    TemplateCategory = "custom"
)

type OutputFormat string

const (
	OutputFormatMarkdown   OutputFormat = "markdown"
	OutputFormatStructured OutputFormat = "structured"
	OutputFormatCustom     OutputFormat = "custom"
)

// TemplateField describes a section the generated document is expected to
// contain. It is informational and never enforced when transforming.
type TemplateField struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Type        string `json:"type" yaml:"type" validate:"required,oneof=text date list section"`
	Required    bool   `json:"required" yaml:"required"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

type Template struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Category       TemplateCategory `json:"category"`
	MeetingType    string           `json:"meeting_type"`
	PromptTemplate string           `json:"prompt_template"`
	OutputFormat   OutputFormat     `json:"output_format"`
	Fields         []TemplateField  `json:"fields"`
	IsDefault      bool             `json:"is_default"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type TemplateFilter struct {
	Category    TemplateCategory
	MeetingType string
	IsActive    *bool
}

type CreateTemplateRequest struct {
	Name           string           `json:"name" yaml:"name" validate:"required,max=200"`
	Description    string           `json:"description" yaml:"description"`
	Category       TemplateCategory `json:"category" yaml:"category" validate:"required,oneof=technical medical meeting custom"`
	MeetingType    string           `json:"meeting_type" yaml:"meeting_type" validate:"required"`
	PromptTemplate string           `json:"prompt_template" yaml:"prompt_template" validate:"required,notecontent"`
	OutputFormat   OutputFormat     `json:"output_format" yaml:"output_format" validate:"required,oneof=markdown structured custom"`
	Fields         []TemplateField  `json:"fields" yaml:"fields" validate:"dive"`
	IsDefault      bool             `json:"is_default" yaml:"is_default"`
}

type UpdateTemplateRequest struct {
	Name           *string           `json:"name" validate:"omitempty,max=200"`
	Description    *string           `json:"description"`
	Category       *TemplateCategory `json:"category" validate:"omitempty,oneof=technical medical meeting custom"`
	MeetingType    *string           `json:"meeting_type"`
	PromptTemplate *string           `json:"prompt_template" validate:"omitempty,notecontent"`
	OutputFormat   *OutputFormat     `json:"output_format" validate:"omitempty,oneof=markdown structured custom"`
	Fields         []TemplateField   `json:"fields" validate:"omitempty,dive"`
	IsDefault      *bool             `json:"is_default"`
	IsActive       *bool             `json:"is_active"`
}

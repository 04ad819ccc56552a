package domain

import "time"

type MeetingType string

const (
	MeetingTypeDevelopment   MeetingType = "development"
	MeetingTypeTechnical     MeetingType = "technical"
	MeetingTypeGeneral       MeetingType = "general"
	MeetingTypeDoctorPatient MeetingType = "doctor-patient"
)

type Note struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	MeetingType MeetingType `json:"meeting_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type NoteFilter struct {
	MeetingType MeetingType
	Search      string
}

type CreateNoteRequest struct {
	Title       string      `json:"title" validate:"required,max=500"`
	Content     string      `json:"content"`
	MeetingType MeetingType `json:"meeting_type" validate:"required,oneof=development technical general doctor-patient"`
}

type UpdateNoteRequest struct {
	Title       *string      `json:"title" validate:"omitempty,max=500"`
	Content     *string      `json:"content"`
	MeetingType *MeetingType `json:"meeting_type" validate:"omitempty,oneof=development technical general doctor-patient"`
}

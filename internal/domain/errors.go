package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var (
	ErrNoteNotFound     = fmt.Errorf("note %w", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("template %w", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)

	ErrProviderFailure = errors.New("generation provider failed")
	ErrStreamAborted   = errors.New("generation stream aborted")
	ErrInvalidTemplate = errors.New("prompt template must contain {{note_content}}")
	ErrInvalidExport   = errors.New("unsupported export format")
	ErrUnauthorized    = errors.New("invalid credentials")

	ErrTemplateNameTaken = errors.New("template name already taken")
)

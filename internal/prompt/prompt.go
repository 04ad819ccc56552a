// Package prompt composes the system instruction and the user prompt sent to
// the generation provider for a template-driven transformation.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"notedev-server/internal/domain"
)

const (
	NoteContentKey = "note_content"
	DateKey        = "date"

	// DateLayout is used for every {{date}} substitution.
	DateLayout = time.RFC3339
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Render replaces the placeholders of promptTemplate in a single pass.
// {{note_content}} and {{date}} are always known; any other {{key}} is
// replaced only when extra holds key, otherwise it is kept verbatim.
// Substituted values are never scanned again.
func Render(promptTemplate, noteContent string, extra map[string]any, now time.Time) string {
	date := now.UTC().Format(DateLayout)

	return placeholderPattern.ReplaceAllStringFunc(promptTemplate, func(token string) string {
		key := token[2 : len(token)-2]

		switch key {
		case NoteContentKey:
			return noteContent
		case DateKey:
			return date
		}

		if value, ok := extra[key]; ok {
			return fmt.Sprint(value)
		}
		return token
	})
}

// HasNoteContent reports whether promptTemplate references the note text.
func HasNoteContent(promptTemplate string) bool {
	return strings.Contains(promptTemplate, "{{"+NoteContentKey+"}}")
}

func SystemPrompt(t *domain.Template) string {
	description := t.Description
	if strings.TrimSpace(description) == "" {
		description = "N/A"
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant specialized in transforming raw meeting notes into professional, well-formatted documents.\n\n")
	fmt.Fprintf(&b, "Your task is to transform the provided notes according to the template %q (%s category).\n\n", t.Name, t.Category)
	b.WriteString("Guidelines:\n")
	b.WriteString("- Maintain factual accuracy - only use information present in the notes\n")
	b.WriteString("- Follow the template structure precisely\n")
	b.WriteString("- Use clear, professional language\n")
	fmt.Fprintf(&b, "- Format output in %s format\n", t.OutputFormat)
	b.WriteString("- If information for a required field is missing, indicate it clearly\n\n")
	fmt.Fprintf(&b, "Template Description: %s", description)

	return b.String()
}

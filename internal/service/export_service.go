package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"notedev-server/internal/domain"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

const generatedLayout = "2006-01-02 15:04:05 MST"

var unsafeFilenameChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

type ExportService struct {
	documents *DocumentService
	markdown  goldmark.Markdown
	now       func() time.Time
	logger    *zap.Logger
}

func NewExportService(documents *DocumentService, logger *zap.Logger) *ExportService {
	return &ExportService{
		documents: documents,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:       time.Now,
		logger:    logger,
	}
}

// Export renders a stored document in the requested format.
func (s *ExportService) Export(ctx context.Context, documentID string, format domain.ExportFormat) (*domain.ExportedFile, error) {
	if format != domain.ExportMarkdown && format != domain.ExportHTML {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidExport, format)
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var file *domain.ExportedFile
	switch format {
	case domain.ExportMarkdown:
		file = &domain.ExportedFile{
			Filename:    ExportFilename(doc.Title, "md"),
			ContentType: "text/markdown; charset=utf-8",
			Body:        []byte(s.renderMarkdown(doc)),
		}
	case domain.ExportHTML:
		body, err := s.renderHTML(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to render html: %w", err)
		}
		file = &domain.ExportedFile{
			Filename:    ExportFilename(doc.Title, "html"),
			ContentType: "text/html; charset=utf-8",
			Body:        body,
		}
	}

	s.logger.Info("Document exported",
		zap.String("document_id", doc.ID),
		zap.String("format", string(format)),
		zap.Int("size", len(file.Body)),
	)

	return file, nil
}

func (s *ExportService) renderMarkdown(doc *domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "*Generated: %s*\n\n---\n\n", s.now().UTC().Format(generatedLayout))
	b.WriteString(doc.Content)
	return b.String()
}

func (s *ExportService) renderHTML(doc *domain.Document) ([]byte, error) {
	var content bytes.Buffer
	if err := s.markdown.Convert([]byte(doc.Content), &content); err != nil {
		return nil, err
	}

	title := html.EscapeString(doc.Title)

	var out bytes.Buffer
	fmt.Fprintf(&out, htmlPage,
		title,
		title,
		html.EscapeString(s.now().UTC().Format(generatedLayout)),
		content.String(),
	)
	return out.Bytes(), nil
}

// ExportFilename lowercases title and replaces every non-alphanumeric
// character with an underscore.
func ExportFilename(title, ext string) string {
	name := strings.ToLower(unsafeFilenameChars.ReplaceAllString(title, "_"))
	if name == "" {
		name = "document"
	}
	return name + "." + ext
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 40px 20px; line-height: 1.6; color: #333; }
    h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
    h2 { color: #34495e; margin-top: 30px; }
    code { background: #f4f4f4; padding: 2px 6px; border-radius: 3px; font-family: 'Courier New', monospace; }
    pre { background: #f4f4f4; padding: 15px; border-radius: 5px; overflow-x: auto; }
    blockquote { border-left: 4px solid #3498db; margin-left: 0; padding-left: 20px; color: #555; }
    hr { border: none; border-top: 2px solid #eee; margin: 30px 0; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #ddd; padding: 6px 12px; }
  </style>
</head>
<body>
  <h1>%s</h1>
  <p style="font-style: italic; color: #666;">Generated: %s</p><hr>
%s
</body>
</html>
`

package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/internal/llm"
	"notedev-server/internal/middleware"
	"notedev-server/internal/repository"
	"notedev-server/internal/service"
	"notedev-server/pkg/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@notedev.local"
	adminPassword = "AdminPassword123!"
)

type scriptedProvider struct {
	fragments []string
	failAfter int
}

func (p *scriptedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	if p.failAfter >= 0 {
		return nil, fmt.Errorf("%w: quota exceeded", domain.ErrProviderFailure)
	}
	return &llm.Result{Text: strings.Join(p.fragments, ""), InputTokens: 12, OutputTokens: 30}, nil
}

func (p *scriptedProvider) GenerateStream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	fragments := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(fragments)
		for i, f := range p.fragments {
			if i == p.failAfter {
				errs <- fmt.Errorf("%w: connection reset", domain.ErrProviderFailure)
				return
			}
			select {
			case fragments <- f:
			case <-ctx.Done():
				errs <- fmt.Errorf("%w: %w", domain.ErrStreamAborted, ctx.Err())
				return
			}
		}
	}()
	return fragments, errs
}

type testServer struct {
	handler  http.Handler
	store    *repository.MemoryStore
	provider *scriptedProvider
	note     *domain.Note
	template *domain.Template
	auth     *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	provider := &scriptedProvider{fragments: []string{"# Minutes\n", "- item"}, failAfter: -1}

	validate := NewValidator()
	notes := service.NewNoteService(store.Notes(), logger)
	templates := service.NewTemplateService(store.Templates(), logger)
	documents := service.NewDocumentService(store.Documents(), "test-model", nil, logger)
	exports := service.NewExportService(documents, logger)
	transforms := service.NewTransformService(store.Notes(), store.Templates(), documents, provider, 1024, logger)

	passwordHash, err := hash.Hash(adminPassword)
	require.NoError(t, err)
	auth := service.NewAuthService(adminEmail, passwordHash, "handler-test-secret", time.Hour, 24*time.Hour, logger)

	note, err := notes.Create(ctx, &domain.CreateNoteRequest{
		Title:       "Weekly Sync",
		Content:     "Alice owns the release.",
		MeetingType: domain.MeetingTypeGeneral,
	})
	require.NoError(t, err)

	template, err := templates.Create(ctx, &domain.CreateTemplateRequest{
		Name:           "General Meeting Minutes",
		Category:       domain.CategoryMeeting,
		MeetingType:    "general",
		PromptTemplate: "Minutes:\n{{note_content}}",
		OutputFormat:   domain.OutputFormatMarkdown,
	})
	require.NoError(t, err)

	router := &Router{
		Auth:        NewAuthHandler(auth, validate, logger),
		Notes:       NewNoteHandler(notes, validate, logger),
		Templates:   NewTemplateHandler(templates, validate, logger),
		Documents:   NewDocumentHandler(documents, exports, logger),
		Transform:   NewTransformHandler(transforms, validate, logger),
		AdminAuth:   middleware.AuthMiddleware(auth, logger),
		CORSOrigins: "*",
		CORSMethods: "GET,POST,PUT,DELETE,OPTIONS",
		CORSHeaders: "Content-Type,Authorization",
		Logger:      logger,
	}

	return &testServer{
		handler:  router.Handler(),
		store:    store,
		provider: provider,
		note:     note,
		template: template,
		auth:     auth,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) documentCount(t *testing.T) int {
	t.Helper()
	docs, err := s.store.Documents().List(context.Background(), "")
	require.NoError(t, err)
	return len(docs)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"notedev-server"}`, string(env.Data))
}

func TestNoteRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/notes", map[string]string{
		"title":        "Retro",
		"content":      "Went well",
		"meeting_type": "development",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Note
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Retro", created.Title)

	rec, env = s.do(t, http.MethodPost, "/api/notes", map[string]string{"title": "No type"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "meeting_type is required")

	rec, env = s.do(t, http.MethodGet, "/api/notes?meeting_type=development", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []domain.Note
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	rec, env = s.do(t, http.MethodPut, "/api/notes/"+created.ID, map[string]string{"content": "Went great"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Note
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Went great", updated.Content)
	assert.Equal(t, "Retro", updated.Title)

	rec, _ = s.do(t, http.MethodDelete, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found", env.Error)
}

func TestTemplateRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{
		"name":            "Doctor Prescription",
		"category":        "medical",
		"meeting_type":    "doctor-patient",
		"prompt_template": "Prescription for {{date}}:\n{{note_content}}",
		"output_format":   "structured",
		"fields":          []map[string]interface{}{{"name": "Medication", "type": "list", "required": true}},
	}

	rec, _ := s.do(t, http.MethodPost, "/api/templates", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var login domain.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	bearer := "Bearer " + login.AccessToken

	rec, env = s.do(t, http.MethodPost, "/api/templates", body, "Authorization", bearer)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var created domain.Template
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.IsActive)

	rec, _ = s.do(t, http.MethodPost, "/api/templates", body, "Authorization", bearer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body["name"] = "Broken"
	body["prompt_template"] = "No placeholder here"
	rec, env = s.do(t, http.MethodPost, "/api/templates", body, "Authorization", bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "{{note_content}}")

	rec, env = s.do(t, http.MethodGet, "/api/templates?category=medical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []domain.Template
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Doctor Prescription", listed[0].Name)

	rec, _ = s.do(t, http.MethodGet, "/api/templates?is_active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/templates/"+created.ID, nil, "Authorization", "Bearer "+login.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/templates/"+created.ID, nil, "Authorization", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Error)
}

func TestTransform(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/ai/transform", map[string]string{
		"note_id":     s.note.ID,
		"template_id": s.template.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Equal(t, "Weekly Sync - General Meeting Minutes", doc.Title)
	assert.Equal(t, "# Minutes\n- item", doc.Content)
	require.NotNil(t, doc.TokensUsed)
	assert.Equal(t, 42, *doc.TokensUsed)
	assert.Equal(t, "test-model", doc.AIModel)
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]string
		failAfter int
		want      int
		wantError string
	}{
		{name: "missing template id", body: map[string]string{"note_id": "x"}, failAfter: -1, want: http.StatusBadRequest},
		{name: "unknown note", body: map[string]string{"note_id": "missing", "template_id": "TEMPLATE"}, failAfter: -1, want: http.StatusNotFound, wantError: "Note not found"},
		{name: "unknown template", body: map[string]string{"note_id": "NOTE", "template_id": "missing"}, failAfter: -1, want: http.StatusNotFound, wantError: "Template not found"},
		{name: "provider failure", body: map[string]string{"note_id": "NOTE", "template_id": "TEMPLATE"}, failAfter: 0, want: http.StatusBadGateway, wantError: "Failed to transform note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.provider.failAfter = tt.failAfter
			for k, v := range tt.body {
				v = strings.ReplaceAll(v, "NOTE", s.note.ID)
				tt.body[k] = strings.ReplaceAll(v, "TEMPLATE", s.template.ID)
			}

			rec, env := s.do(t, http.MethodPost, "/api/ai/transform", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, env.Error)
			}
			assert.Zero(t, s.documentCount(t))
		})
	}
}

func readEvents(t *testing.T, body string) []domain.StreamEvent {
	t.Helper()
	var events []domain.StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e domain.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		events = append(events, e)
	}
	return events
}

func TestTransformStream(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/ai/transform/stream", map[string]string{
		"note_id":     s.note.ID,
		"template_id": s.template.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, domain.StreamEvent{Type: domain.StreamEventFragment, Chunk: "# Minutes\n"}, events[0])
	assert.Equal(t, domain.StreamEvent{Type: domain.StreamEventFragment, Chunk: "- item"}, events[1])
	assert.Equal(t, domain.StreamEventDone, events[2].Type)
	require.NotEmpty(t, events[2].DocumentID)

	rec, env := s.do(t, http.MethodGet, "/api/export/documents/"+events[2].DocumentID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Equal(t, "# Minutes\n- item", doc.Content)
	assert.Nil(t, doc.TokensUsed)
}

func TestTransformStreamProviderError(t *testing.T) {
	s := newTestServer(t)
	s.provider.failAfter = 1

	rec, _ := s.do(t, http.MethodPost, "/api/ai/transform/stream", map[string]string{
		"note_id":     s.note.ID,
		"template_id": s.template.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, domain.StreamEventFragment, events[0].Type)
	assert.Equal(t, domain.StreamEvent{Type: domain.StreamEventError, Error: "Transformation failed"}, events[1])
	assert.Zero(t, s.documentCount(t))
}

func TestTransformStreamNotFound(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/ai/transform/stream", map[string]string{
		"note_id":     "missing",
		"template_id": s.template.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found", env.Error)
}

func TestDocumentExport(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/api/ai/transform", map[string]string{
		"note_id":     s.note.ID,
		"template_id": s.template.ID,
	})
	var doc domain.Document
	require.NoError(t, json.Unmarshal(env.Data, &doc))

	rec, env := s.do(t, http.MethodGet, "/api/export/documents?note_id="+s.note.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []domain.Document
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	assert.Len(t, docs, 1)

	rec, _ = s.do(t, http.MethodGet, "/api/export/documents/"+doc.ID+"/download?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="weekly_sync___general_meeting_minutes.md"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Weekly Sync - General Meeting Minutes"))

	rec, _ = s.do(t, http.MethodGet, "/api/export/documents/"+doc.ID+"/download?format=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Minutes</h1>")

	rec, env = s.do(t, http.MethodGet, "/api/export/documents/"+doc.ID+"/download?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or missing format parameter", env.Error)

	rec, _ = s.do(t, http.MethodGet, "/api/export/documents/missing/download?format=html", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

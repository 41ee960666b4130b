package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/config"
	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/services"
)

type mockChatService struct {
	resp        *domain.ChatResponse
	err         error
	turns       []domain.ConversationTurn
	convIDs     []string
	deleted     string
	deletedErr  error
	lastRequest domain.ChatRequest
}

func (m *mockChatService) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.lastRequest = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return m.resp, m.err
}

func (m *mockChatService) GetConversation(_ context.Context, id string) ([]domain.ConversationTurn, error) {
	if m.turns == nil {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return m.turns, nil
}

func (m *mockChatService) ListConversations(_ context.Context, _ string) ([]string, error) {
	return m.convIDs, nil
}

func (m *mockChatService) DeleteConversation(_ context.Context, id string) error {
	m.deleted = id
	return m.deletedErr
}

type mockFeedbackService struct {
	id    string
	err   error
	stats domain.FeedbackStats
}

func (m *mockFeedbackService) SubmitFeedback(_ context.Context, req domain.FeedbackRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return m.id, m.err
}

func (m *mockFeedbackService) FeedbackStats(_ context.Context) (domain.FeedbackStats, error) {
	return m.stats, nil
}

type mockIngestService struct {
	mu       sync.Mutex
	report   *domain.IngestReport
	err      error
	calls    int
	lastFile string
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.report, m.err
}

func (m *mockIngestService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (*domain.IngestReport, error) {
	m.mu.Lock()
	m.lastFile = path
	m.mu.Unlock()
	return m.report, m.err
}

type mockDocumentService struct {
	docs    []domain.DocumentSummary
	err     error
	deleted string
}

func (m *mockDocumentService) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) DeleteDocument(_ context.Context, docID string) error {
	m.deleted = docID
	return m.err
}

type mockHealthService struct {
	report domain.HealthReport
}

func (m *mockHealthService) Health(_ context.Context) domain.HealthReport {
	return m.report
}

type testServer struct {
	server    *Server
	chat      *mockChatService
	feedback  *mockFeedbackService
	ingest    *mockIngestService
	documents *mockDocumentService
	health    *mockHealthService
}

func newTestServer() *testServer {
	ts := &testServer{
		chat:      &mockChatService{},
		feedback:  &mockFeedbackService{},
		ingest:    &mockIngestService{},
		documents: &mockDocumentService{},
		health:    &mockHealthService{},
	}
	ts.server = NewServer(
		ts.chat, ts.feedback, ts.ingest, ts.documents, ts.health,
		config.Default().Server, zap.NewNop(),
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	ts := newTestServer()
	ts.chat.resp = &domain.ChatResponse{
		Answer:         "Reset your password from the account page.",
		ConversationID: "conv-1",
		Confidence:     0.87,
		Sources: []domain.SourceCitation{
			{DocTitle: "Password Reset Guide", SourceType: domain.SourceMarkdown, Confidence: 0.87, ChunkID: "md:guide#0"},
		},
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/chat", domain.ChatRequest{
		UserID: "u1",
		Query:  "How do I reset my password?",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.False(t, resp.FallbackTriggered)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Password Reset Guide", resp.Sources[0].DocTitle)
}

func TestHandleChat_FallbackIsStill200(t *testing.T) {
	ts := newTestServer()
	ts.chat.resp = &domain.ChatResponse{
		Answer:            services.FallbackAnswer,
		ConversationID:    "conv-2",
		Sources:           []domain.SourceCitation{},
		FallbackTriggered: true,
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/chat", domain.ChatRequest{
		UserID: "u1",
		Query:  "What is the weather on Jupiter?",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.FallbackTriggered)
	assert.Equal(t, services.FallbackAnswer, resp.Answer)
}

func TestHandleChat_ValidationError(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/chat", domain.ChatRequest{UserID: "u1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query")
}

func TestHandleChat_InvalidBody(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestHandleChat_ProviderError(t *testing.T) {
	ts := newTestServer()
	ts.chat.err = fmt.Errorf("embedding query: %w", &domain.ProviderError{
		Provider: "ollama", Op: "embed", Err: fmt.Errorf("connection refused"),
	})

	rec := ts.do(t, http.MethodPost, "/api/v1/chat", domain.ChatRequest{
		UserID: "u1",
		Query:  "anything",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleFeedback(t *testing.T) {
	ts := newTestServer()
	ts.feedback.id = "fb-1"

	rec := ts.do(t, http.MethodPost, "/api/v1/feedback", domain.FeedbackRequest{
		ConversationID: "conv-1",
		UserID:         "u1",
		Rating:         5,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fb-1", resp["feedback_id"])
}

func TestHandleFeedback_InvalidRating(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/feedback", domain.FeedbackRequest{
		ConversationID: "conv-1",
		UserID:         "u1",
		Rating:         6,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rating")
}

func TestHandleFeedbackStats(t *testing.T) {
	ts := newTestServer()
	ts.feedback.stats = domain.FeedbackStats{
		Total:              4,
		AverageRating:      3.5,
		RatingDistribution: map[string]int{"3": 2, "4": 2},
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/feedback/stats", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.FeedbackStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Total)
	assert.InDelta(t, 3.5, stats.AverageRating, 1e-9)
}

func TestHandleIngest(t *testing.T) {
	ts := newTestServer()
	ts.ingest.report = &domain.IngestReport{DocumentsProcessed: 2, ChunksCreated: 9}

	rec := ts.do(t, http.MethodPost, "/api/v1/ingest", domain.IngestRequest{
		Sources: []domain.IngestSource{
			{SourceType: domain.SourceText, Params: map[string]any{"path": "/docs/faq.txt"}},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.IngestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Equal(t, 9, report.ChunksCreated)
}

func TestHandleIngest_TicketSourcesRunInBackground(t *testing.T) {
	ts := newTestServer()
	ts.ingest.report = &domain.IngestReport{DocumentsProcessed: 40, ChunksCreated: 200}

	rec := ts.do(t, http.MethodPost, "/api/v1/ingest", domain.IngestRequest{
		Sources: []domain.IngestSource{
			{SourceType: domain.SourceZendesk, Params: map[string]any{"status": "solved"}},
			{SourceType: domain.SourceJira},
		},
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	var report domain.IngestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.TaskID)
	assert.Zero(t, report.DocumentsProcessed)

	require.Eventually(t, func() bool {
		return ts.ingest.callCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleIngest_MixedSourcesStaySynchronous(t *testing.T) {
	ts := newTestServer()
	ts.ingest.report = &domain.IngestReport{DocumentsProcessed: 3, ChunksCreated: 12}

	rec := ts.do(t, http.MethodPost, "/api/v1/ingest", domain.IngestRequest{
		Sources: []domain.IngestSource{
			{SourceType: domain.SourceZendesk},
			{SourceType: domain.SourceText, Params: map[string]any{"path": "/docs/faq.txt"}},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.IngestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Empty(t, report.TaskID)
	assert.Equal(t, 3, report.DocumentsProcessed)
}

func TestHandleIngest_UnknownSourceType(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/ingest", domain.IngestRequest{
		Sources: []domain.IngestSource{{SourceType: "carrier-pigeon"}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func (ts *testServer) doUpload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleUpload(t *testing.T) {
	ts := newTestServer()
	ts.ingest.report = &domain.IngestReport{DocumentsProcessed: 1, ChunksCreated: 4}

	rec := ts.doUpload(t, "password-reset.md", []byte("# Password Reset\n\nUse the reset link."))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		FileName string              `json:"file_name"`
		Report   domain.IngestReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "password-reset.md", resp.FileName)
	assert.Equal(t, 1, resp.Report.DocumentsProcessed)
	assert.Equal(t, 4, resp.Report.ChunksCreated)

	// The staged copy keeps the original name so the document title
	// comes out right.
	assert.Equal(t, "password-reset.md", filepath.Base(ts.ingest.lastFile))
}

func TestHandleUpload_UnsupportedExtension(t *testing.T) {
	ts := newTestServer()

	rec := ts.doUpload(t, "notes.html", []byte("<p>hello</p>"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
	assert.Empty(t, ts.ingest.lastFile)
}

func TestHandleUpload_MissingFileField(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListDocuments(t *testing.T) {
	ts := newTestServer()
	ts.documents.docs = []domain.DocumentSummary{
		{ID: "md:guide", Title: "Password Reset Guide", SourceType: domain.SourceMarkdown, ChunkCount: 3},
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/documents", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Documents []domain.DocumentSummary `json:"documents"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "md:guide", resp.Documents[0].ID)
}

func TestHandleListDocuments_EmptyIsNotNull(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/v1/documents", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents":[]`)
}

func TestHandleDeleteDocument(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodDelete, "/api/v1/documents/zendesk:1234", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zendesk:1234", ts.documents.deleted)
}

func TestHandleGetConversation(t *testing.T) {
	ts := newTestServer()
	ts.chat.turns = []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/conversations/conv-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ConversationID string                    `json:"conversation_id"`
		Turns          []domain.ConversationTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conv-1", resp.ConversationID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, domain.RoleAssistant, resp.Turns[1].Role)
}

func TestHandleGetConversation_NotFound(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/v1/conversations/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDeleteConversation(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodDelete, "/api/v1/conversations/conv-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-1", ts.chat.deleted)
}

func TestHandleListConversations(t *testing.T) {
	ts := newTestServer()
	ts.chat.convIDs = []string{"conv-2", "conv-1"}

	rec := ts.do(t, http.MethodGet, "/api/v1/users/u1/conversations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		UserID          string   `json:"user_id"`
		ConversationIDs []string `json:"conversation_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, []string{"conv-2", "conv-1"}, resp.ConversationIDs)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer()
	ts.health.report = domain.HealthReport{
		Status: "ok",
		Components: []domain.ComponentStatus{
			{Name: "embedding", Status: "ok"},
			{Name: "vector_index", Status: "ok"},
		},
	}

	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHealth_Degraded(t *testing.T) {
	ts := newTestServer()
	ts.health.report = domain.HealthReport{
		Status: "degraded",
		Components: []domain.ComponentStatus{
			{Name: "embedding", Status: "unavailable", Detail: "connection refused"},
			{Name: "vector_index", Status: "ok"},
		},
	}

	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

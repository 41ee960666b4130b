package cli

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/opentier/supportbot/internal/core/domain"
)

type stubChatService struct {
	resp *domain.ChatResponse
	err  error
}

func (s *stubChatService) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.resp, s.err
}

func (s *stubChatService) GetConversation(_ context.Context, id string) ([]domain.ConversationTurn, error) {
	return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

func (s *stubChatService) ListConversations(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (s *stubChatService) DeleteConversation(_ context.Context, _ string) error {
	return nil
}

type stubIngestService struct {
	report *domain.IngestReport
	err    error
	files  []string
}

func (s *stubIngestService) Ingest(_ context.Context, _ domain.IngestRequest) (*domain.IngestReport, error) {
	return s.report, s.err
}

func (s *stubIngestService) IngestFile(_ context.Context, path string) (*domain.IngestReport, error) {
	s.files = append(s.files, path)
	return s.report, s.err
}

type stubDocumentService struct {
	docs    []domain.DocumentSummary
	err     error
	deleted []string
}

func (s *stubDocumentService) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	return s.docs, s.err
}

func (s *stubDocumentService) DeleteDocument(_ context.Context, docID string) error {
	s.deleted = append(s.deleted, docID)
	return s.err
}

type stubFeedbackService struct{}

func (s *stubFeedbackService) SubmitFeedback(_ context.Context, _ domain.FeedbackRequest) (string, error) {
	return "fb-1", nil
}

func (s *stubFeedbackService) FeedbackStats(_ context.Context) (domain.FeedbackStats, error) {
	return domain.FeedbackStats{}, nil
}

type testServices struct {
	chat      *stubChatService
	ingest    *stubIngestService
	documents *stubDocumentService
}

// setupTestServices installs stub services and returns them with a
// cleanup that restores the unconfigured state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		chat: &stubChatService{
			resp: &domain.ChatResponse{
				Answer:         "Reset it from the account settings page.",
				ConversationID: "conv-1",
				Confidence:     0.82,
				Sources: []domain.SourceCitation{
					{DocTitle: "Password Reset Guide", SourceType: domain.SourceMarkdown, Confidence: 0.82, ChunkID: "md:guide#0"},
				},
			},
		},
		ingest: &stubIngestService{
			report: &domain.IngestReport{DocumentsProcessed: 1, ChunksCreated: 4},
		},
		documents: &stubDocumentService{
			docs: []domain.DocumentSummary{
				{ID: "md:guide", Title: "Password Reset Guide", SourceType: domain.SourceMarkdown, ChunkCount: 4, CreatedAt: time.Now()},
			},
		},
	}
	SetServices(ts.chat, ts.ingest, ts.documents, &stubFeedbackService{})
	return ts, func() {
		SetServices(nil, nil, nil, nil)
	}
}

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

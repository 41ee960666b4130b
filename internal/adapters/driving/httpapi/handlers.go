package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/core/domain"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		s.logger.Error("chat failed", zap.String("user_id", req.UserID), zap.Error(err))
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req domain.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.feedback.SubmitFeedback(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]string{
		"feedback_id": id,
		"status":      "received",
	})
}

func (s *Server) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.feedback.FeedbackStats(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.respondDomainError(w, err)
		return
	}

	// Ticket sources page through external APIs and can run for
	// minutes, so they are dispatched as a background task. File
	// sources are fast and stay synchronous.
	if allTicketSources(req.Sources) {
		taskID := uuid.New().String()
		go func() {
			report, err := s.ingest.Ingest(context.Background(), req)
			if err != nil {
				s.logger.Error("background ingestion failed", zap.String("task_id", taskID), zap.Error(err))
				return
			}
			s.logger.Info("background ingestion finished",
				zap.String("task_id", taskID),
				zap.Int("documents", report.DocumentsProcessed),
				zap.Int("chunks", report.ChunksCreated),
				zap.Strings("errors", report.Errors),
			)
		}()
		s.respondJSON(w, http.StatusAccepted, domain.IngestReport{TaskID: taskID, Errors: []string{}})
		return
	}

	report, err := s.ingest.Ingest(r.Context(), req)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

// handleUpload accepts a multipart document upload and ingests it.
// The file is staged under its original name in a scratch directory so
// the extracted document keeps a sensible title.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !uploadExtensions[ext] {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q, allowed: .pdf, .docx, .txt, .md", ext))
		return
	}

	dir, err := os.MkdirTemp("", "supportbot-upload-")
	if err != nil {
		s.logger.Error("creating upload scratch dir", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := writeUpload(path, file); err != nil {
		s.logger.Error("staging upload", zap.String("file", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	report, err := s.ingest.IngestFile(r.Context(), path)
	if err != nil {
		s.logger.Error("upload ingestion failed", zap.String("file", name), zap.Error(err))
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"file_name": name,
		"report":    report,
	})
}

// uploadExtensions are the file types the extractors claim.
var uploadExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

func writeUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func allTicketSources(sources []domain.IngestSource) bool {
	for _, src := range sources {
		if src.SourceType != domain.SourceZendesk && src.SourceType != domain.SourceJira {
			return false
		}
	}
	return len(sources) > 0
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	if err := s.documents.DeleteDocument(r.Context(), docID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"document_id": docID,
		"status":      "deleted",
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	turns, err := s.chat.GetConversation(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"conversation_id": id,
		"turns":           turns,
	})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.chat.DeleteConversation(r.Context(), id); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"conversation_id": id,
		"status":          "deleted",
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ids, err := s.chat.ListConversations(r.Context(), userID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"user_id":          userID,
		"conversation_ids": ids,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Health(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	s.respondJSON(w, status, report)
}

// respondDomainError maps domain error kinds to HTTP status codes.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case domain.IsProvider(err):
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

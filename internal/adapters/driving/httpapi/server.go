// Package httpapi provides the HTTP API for the support chatbot.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/config"
	"github.com/opentier/supportbot/internal/core/ports/driving"
)

// Server is the HTTP server for the chatbot API.
type Server struct {
	chat      driving.ChatService
	feedback  driving.FeedbackService
	ingest    driving.IngestService
	documents driving.DocumentService
	health    driving.HealthService
	config    config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	chat driving.ChatService,
	feedback driving.FeedbackService,
	ingest driving.IngestService,
	documents driving.DocumentService,
	health driving.HealthService,
	cfg config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		chat:      chat,
		feedback:  feedback,
		ingest:    ingest,
		documents: documents,
		health:    health,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/chat", s.handleChat)
	r.Post("/api/v1/feedback", s.handleFeedback)
	r.Get("/api/v1/feedback/stats", s.handleFeedbackStats)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Post("/api/v1/upload", s.handleUpload)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/conversations/{id}", s.handleGetConversation)
	r.Delete("/api/v1/conversations/{id}", s.handleDeleteConversation)
	r.Get("/api/v1/users/{userID}/conversations", s.handleListConversations)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.config.Addr(),
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", s.config.Addr()))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

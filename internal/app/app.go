// Package app wires configuration, adapters, and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/adapters/driven/ai"
	storagemem "github.com/opentier/supportbot/internal/adapters/driven/storage/memory"
	vectormem "github.com/opentier/supportbot/internal/adapters/driven/vector/memory"
	vectorsqlite "github.com/opentier/supportbot/internal/adapters/driven/vector/sqlite"
	"github.com/opentier/supportbot/internal/adapters/driving/httpapi"
	"github.com/opentier/supportbot/internal/config"
	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
	"github.com/opentier/supportbot/internal/core/services"
	"github.com/opentier/supportbot/internal/extractors"
	"github.com/opentier/supportbot/internal/watcher"
)

// App holds the assembled service graph.
type App struct {
	Chat      *services.ChatService
	Ingest    *services.IngestService
	Documents *services.DocumentService
	Feedback  *services.FeedbackService
	Health    *services.HealthService

	cfg       config.Config
	logger    *zap.Logger
	embedder  driven.EmbeddingService
	generator driven.GenerationService
	index     driven.VectorIndex
	server    *httpapi.Server
	watch     *watcher.Watcher
}

// New builds the application from config. It validates connectivity to
// the AI providers and the vector index before returning.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	embedder, err := ai.CreateAndValidateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		return nil, err
	}
	generator, err := ai.CreateAndValidateGenerationService(cfg.GenerationSettings())
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	index, err := openIndex(cfg.Vector)
	if err != nil {
		_ = embedder.Close()
		_ = generator.Close()
		return nil, err
	}
	if err := ai.ValidateIndexDimensions(ctx, index, embedder); err != nil {
		_ = embedder.Close()
		_ = generator.Close()
		_ = index.Close()
		return nil, err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		_ = embedder.Close()
		_ = generator.Close()
		_ = index.Close()
		return nil, err
	}

	conversations := storagemem.NewConversationStore()
	feedback := storagemem.NewFeedbackStore()
	retrieval := cfg.RetrievalSettings()

	a := &App{
		Chat:      services.NewChatService(embedder, index, generator, conversations, retrieval, logger),
		Ingest:    services.NewIngestService(registry, embedder, index, retrieval, logger),
		Documents: services.NewDocumentService(index),
		Feedback:  services.NewFeedbackService(feedback, logger),
		Health:    services.NewHealthService(embedder, generator, index),
		cfg:       cfg,
		logger:    logger,
		embedder:  embedder,
		generator: generator,
		index:     index,
	}
	return a, nil
}

func openIndex(cfg config.VectorConfig) (driven.VectorIndex, error) {
	switch domain.VectorBackend(cfg.Backend) {
	case domain.VectorBackendMemory:
		return vectormem.New(), nil
	case domain.VectorBackendSQLite:
		return vectorsqlite.NewIndex(cfg.DataDir)
	default:
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("unknown vector backend %q", cfg.Backend),
		}
	}
}

// buildRegistry assembles the extractor set. File extractors are always
// available; ticket extractors join only when their config is complete.
func buildRegistry(cfg config.Config) (*extractors.Registry, error) {
	exts := []driven.Extractor{
		extractors.NewPlaintext(),
		extractors.NewMarkdown(),
		extractors.NewPDF(),
		extractors.NewDOCX(),
	}
	if cfg.Zendesk.Subdomain != "" {
		z, err := extractors.NewZendesk(extractors.ZendeskConfig{
			Subdomain: cfg.Zendesk.Subdomain,
			Email:     cfg.Zendesk.Email,
			APIToken:  cfg.Zendesk.APIToken,
		})
		if err != nil {
			return nil, err
		}
		exts = append(exts, z)
	}
	if cfg.Jira.BaseURL != "" {
		j, err := extractors.NewJira(extractors.JiraConfig{
			BaseURL:  cfg.Jira.BaseURL,
			Email:    cfg.Jira.Email,
			APIToken: cfg.Jira.APIToken,
		})
		if err != nil {
			return nil, err
		}
		exts = append(exts, j)
	}
	return extractors.NewRegistry(exts...), nil
}

// Run starts the HTTP server and, if enabled, the drop-directory
// watcher. It blocks until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.server = httpapi.NewServer(
		a.Chat, a.Feedback, a.Ingest, a.Documents, a.Health,
		a.cfg.Server, a.logger,
	)

	if a.cfg.Watch.Enabled {
		a.watch = watcher.New(a.cfg.Watch.Dir, nil, a.ingestDropped(ctx), a.logger)
		if err := a.watch.Start(ctx); err != nil {
			return err
		}
		if err := a.watch.SyncExisting(); err != nil {
			a.logger.Warn("syncing drop directory failed", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.server.Stop(shutdownCtx)
}

func (a *App) ingestDropped(ctx context.Context) watcher.FileHandler {
	return func(path string) {
		report, err := a.Ingest.IngestFile(ctx, path)
		if err != nil {
			a.logger.Error("ingesting dropped file failed", zap.String("path", path), zap.Error(err))
			return
		}
		a.logger.Info("ingested dropped file",
			zap.String("path", path),
			zap.Int("documents", report.DocumentsProcessed),
			zap.Int("chunks", report.ChunksCreated),
		)
		if len(report.Errors) > 0 {
			a.logger.Warn("ingestion reported errors", zap.Strings("errors", report.Errors))
		}
	}
}

// Close releases provider clients and the vector index.
func (a *App) Close() error {
	if a.watch != nil {
		a.watch.Stop()
	}
	var errs []error
	if err := a.embedder.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.generator.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.index.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

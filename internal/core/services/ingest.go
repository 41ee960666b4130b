package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/chunker"
	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
	"github.com/opentier/supportbot/internal/core/ports/driving"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// ExtractorRegistry routes source types to extractors.
type ExtractorRegistry interface {
	Get(sourceType domain.SourceType) (driven.Extractor, error)
}

// IngestService pulls documents from sources into the vector index.
type IngestService struct {
	registry ExtractorRegistry
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings domain.RetrievalSettings
	logger   *zap.Logger
}

// NewIngestService creates the ingest service.
func NewIngestService(
	registry ExtractorRegistry,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.RetrievalSettings,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		registry: registry,
		embedder: embedder,
		index:    index,
		settings: settings,
		logger:   logger,
	}
}

// Ingest extracts, chunks, embeds, and indexes documents from the
// requested sources. A failed source or document lands in the report's
// errors; the remaining work continues.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report := &domain.IngestReport{TaskID: uuid.NewString()}
	for _, source := range req.Sources {
		if err := s.ingestSource(ctx, source, report); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", source.SourceType, err))
		}
	}

	s.logger.Info("ingestion finished",
		zap.String("task_id", report.TaskID),
		zap.Int("documents", report.DocumentsProcessed),
		zap.Int("chunks", report.ChunksCreated),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// ingestSource runs the pipeline for one source.
func (s *IngestService) ingestSource(ctx context.Context, source domain.IngestSource, report *domain.IngestReport) error {
	extractor, err := s.registry.Get(source.SourceType)
	if err != nil {
		return err
	}

	batch, err := extractor.Extract(ctx, source.Params)
	if err != nil {
		return err
	}
	for _, e := range batch.Errors {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", source.SourceType, e))
	}

	for _, doc := range batch.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.indexDocument(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", doc.Document.ID, err))
			continue
		}
		report.DocumentsProcessed++
		report.ChunksCreated += n
	}
	return nil
}

// indexDocument chunks, embeds, and upserts one document. The delete
// before upsert makes re-ingestion of a changed document idempotent:
// stale chunks from a previous, longer version cannot linger.
func (s *IngestService) indexDocument(ctx context.Context, doc driven.ExtractedDocument) (int, error) {
	split := chunker.ForSource(string(doc.Document.SourceType))
	pieces := split(doc.Text, s.settings.ChunkSize)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("%w: document produced no chunks", domain.ErrEmptyContent)
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(pieces) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(pieces), len(embeddings))
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, content := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("%s#%d", doc.Document.ID, i),
			DocumentID: doc.Document.ID,
			Content:    content,
			Index:      i,
			Embedding:  embeddings[i],
			Document:   doc.Document,
		})
	}

	if err := s.index.DeleteByDocID(ctx, doc.Document.ID); err != nil {
		return 0, fmt.Errorf("removing stale chunks: %w", err)
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("upserting chunks: %w", err)
	}

	s.logger.Debug("indexed document",
		zap.String("doc_id", doc.Document.ID),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// IngestFile ingests a single local file, inferring the source type
// from its extension.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	sourceType, err := sourceTypeForFile(path)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, domain.IngestRequest{
		Sources: []domain.IngestSource{
			{SourceType: sourceType, Params: map[string]any{"path": path}},
		},
	})
}

// sourceTypeForFile maps a file extension to its source type.
func sourceTypeForFile(path string) (domain.SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.SourcePDF, nil
	case ".docx":
		return domain.SourceDocx, nil
	case ".md", ".markdown":
		return domain.SourceMarkdown, nil
	case ".txt":
		return domain.SourceText, nil
	default:
		return "", fmt.Errorf("%w: file extension %q", domain.ErrUnsupportedSource, filepath.Ext(path))
	}
}

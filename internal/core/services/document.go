package services

import (
	"context"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
	"github.com/opentier/supportbot/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes the indexed document inventory.
type DocumentService struct {
	index driven.VectorIndex
}

// NewDocumentService creates the document service.
func NewDocumentService(index driven.VectorIndex) *DocumentService {
	return &DocumentService{index: index}
}

// ListDocuments returns a summary of every indexed document.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.index.ListDocuments(ctx)
}

// DeleteDocument removes a document and its chunks from the index.
func (s *DocumentService) DeleteDocument(ctx context.Context, docID string) error {
	if docID == "" {
		return &domain.ValidationError{Field: "doc_id", Reason: "must not be empty"}
	}
	return s.index.DeleteByDocID(ctx, docID)
}

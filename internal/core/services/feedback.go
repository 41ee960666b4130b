package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
	"github.com/opentier/supportbot/internal/core/ports/driving"
)

// Ensure FeedbackService implements the interface.
var _ driving.FeedbackService = (*FeedbackService)(nil)

// FeedbackService records and aggregates answer feedback.
type FeedbackService struct {
	store  driven.FeedbackStore
	logger *zap.Logger
}

// NewFeedbackService creates the feedback service.
func NewFeedbackService(store driven.FeedbackStore, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{store: store, logger: logger}
}

// SubmitFeedback validates and stores one feedback entry.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, req domain.FeedbackRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	fb := domain.Feedback{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Rating:         req.Rating,
		Text:           req.Text,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return "", err
	}

	s.logger.Info("feedback recorded",
		zap.String("feedback_id", fb.ID),
		zap.Int("rating", fb.Rating),
	)
	return fb.ID, nil
}

// FeedbackStats aggregates all stored feedback.
func (s *FeedbackService) FeedbackStats(ctx context.Context) (domain.FeedbackStats, error) {
	return s.store.Stats(ctx)
}

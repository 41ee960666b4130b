package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// FeedbackStore is an in-memory feedback store. Safe for concurrent use.
type FeedbackStore struct {
	mu      sync.RWMutex
	entries []domain.Feedback
}

// NewFeedbackStore creates an empty feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{}
}

var _ driven.FeedbackStore = (*FeedbackStore)(nil)

// SaveFeedback stores one feedback entry.
func (s *FeedbackStore) SaveFeedback(_ context.Context, fb domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, fb)
	return nil
}

// ListFeedback returns all feedback entries, newest first.
func (s *FeedbackStore) ListFeedback(_ context.Context) ([]domain.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Feedback, len(s.entries))
	copy(out, s.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Stats aggregates the stored feedback. The distribution always carries
// all five rating buckets and the mean is rounded to two decimals.
func (s *FeedbackStore) Stats(_ context.Context) (domain.FeedbackStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.FeedbackStats{
		RatingDistribution: make(map[string]int, 5),
	}
	for r := 1; r <= 5; r++ {
		stats.RatingDistribution[strconv.Itoa(r)] = 0
	}
	var sum int
	for _, fb := range s.entries {
		stats.Total++
		sum += fb.Rating
		stats.RatingDistribution[strconv.Itoa(fb.Rating)]++
	}
	if stats.Total > 0 {
		mean := float64(sum) / float64(stats.Total)
		stats.AverageRating = math.Round(mean*100) / 100
	}
	return stats, nil
}

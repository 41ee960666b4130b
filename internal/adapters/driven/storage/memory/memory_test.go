package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentier/supportbot/internal/core/domain"
)

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()

	t.Run("unknown conversation returns not found", func(t *testing.T) {
		_, err := store.GetConversation(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = store.DeleteConversation(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("turns append in order", func(t *testing.T) {
		require.NoError(t, store.AppendTurn(ctx, "conv1", "alice", domain.ConversationTurn{
			Role: domain.RoleUser, Content: "how do I reset my password?",
		}))
		require.NoError(t, store.AppendTurn(ctx, "conv1", "alice", domain.ConversationTurn{
			Role: domain.RoleAssistant, Content: "Use the reset link on the login page.",
		}))

		turns, err := store.GetConversation(ctx, "conv1")
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, domain.RoleUser, turns[0].Role)
		assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	})

	t.Run("list is per user, most recent first", func(t *testing.T) {
		require.NoError(t, store.AppendTurn(ctx, "conv2", "alice", domain.ConversationTurn{
			Role: domain.RoleUser, Content: "second conversation",
		}))
		require.NoError(t, store.AppendTurn(ctx, "conv3", "bob", domain.ConversationTurn{
			Role: domain.RoleUser, Content: "someone else",
		}))

		ids, err := store.ListConversations(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, "conv2", ids[0])
		assert.Equal(t, "conv1", ids[1])
	})

	t.Run("delete removes history", func(t *testing.T) {
		require.NoError(t, store.DeleteConversation(ctx, "conv1"))
		_, err := store.GetConversation(ctx, "conv1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestFeedbackStore(t *testing.T) {
	ctx := context.Background()
	store := NewFeedbackStore()

	t.Run("empty stats", func(t *testing.T) {
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total)
		assert.Equal(t, 0.0, stats.AverageRating)
		assert.Equal(t, map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}, stats.RatingDistribution)
	})

	now := time.Now()
	require.NoError(t, store.SaveFeedback(ctx, domain.Feedback{ID: "f1", Rating: 5, Timestamp: now}))
	require.NoError(t, store.SaveFeedback(ctx, domain.Feedback{ID: "f2", Rating: 3, Timestamp: now.Add(time.Second)}))
	require.NoError(t, store.SaveFeedback(ctx, domain.Feedback{ID: "f3", Rating: 5, Timestamp: now.Add(2 * time.Second)}))

	t.Run("stats aggregate ratings", func(t *testing.T) {
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		// 13/3 rounded to two decimals.
		assert.InDelta(t, 4.33, stats.AverageRating, 1e-9)
		assert.Equal(t, 2, stats.RatingDistribution["5"])
		assert.Equal(t, 1, stats.RatingDistribution["3"])
		// Unused ratings still report a zero bucket.
		assert.Equal(t, 0, stats.RatingDistribution["1"])
		assert.Equal(t, 0, stats.RatingDistribution["2"])
		assert.Equal(t, 0, stats.RatingDistribution["4"])
	})

	t.Run("list newest first", func(t *testing.T) {
		entries, err := store.ListFeedback(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "f3", entries[0].ID)
	})
}

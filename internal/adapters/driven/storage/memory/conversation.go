// Package memory provides in-memory implementations of the
// conversation and feedback stores. Suitable for single-process
// deployments and tests; history does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

type conversation struct {
	userID    string
	turns     []domain.ConversationTurn
	updatedAt time.Time
}

// ConversationStore is an in-memory conversation store. Safe for
// concurrent use.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

// NewConversationStore creates an empty conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string]*conversation)}
}

var _ driven.ConversationStore = (*ConversationStore)(nil)

// AppendTurn adds a turn to a conversation, creating it on first use.
func (s *ConversationStore) AppendTurn(_ context.Context, conversationID, userID string, turn domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		c = &conversation{userID: userID}
		s.conversations[conversationID] = c
	}
	c.turns = append(c.turns, turn)
	c.updatedAt = time.Now()
	return nil
}

// GetConversation returns all turns of a conversation in order.
func (s *ConversationStore) GetConversation(_ context.Context, conversationID string) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	turns := make([]domain.ConversationTurn, len(c.turns))
	copy(turns, c.turns)
	return turns, nil
}

// ListConversations returns a user's conversation IDs, most recently
// updated first.
func (s *ConversationStore) ListConversations(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id        string
		updatedAt time.Time
	}
	var entries []entry
	for id, c := range s.conversations {
		if c.userID == userID {
			entries = append(entries, entry{id: id, updatedAt: c.updatedAt})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].updatedAt.After(entries[j].updatedAt) })

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids, nil
}

// DeleteConversation removes a conversation and its turns.
func (s *ConversationStore) DeleteConversation(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.conversations, conversationID)
	return nil
}

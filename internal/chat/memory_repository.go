package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	messages      map[string][]Message // conversationID -> messages in insertion order
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
	}
}

func (r *memoryRepository) CreateConversation(_ context.Context, c Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[c.ID] = c
	return nil
}

func (r *memoryRepository) GetConversation(_ context.Context, conversationID string) (Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) ListConversations(_ context.Context, userID string) ([]Conversation, error) {
	r.mu.RLock()
	out := make([]Conversation, 0)
	for _, c := range r.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryRepository) TouchConversation(_ context.Context, conversationID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = at
	r.conversations[conversationID] = c
	return nil
}

func (r *memoryRepository) AppendMessage(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)
	return nil
}

func (r *memoryRepository) RecentMessages(_ context.Context, conversationID string, limit int) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Message, len(all))
	copy(out, all)
	return out, nil
}

func (r *memoryRepository) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	return r.RecentMessages(ctx, conversationID, 0)
}

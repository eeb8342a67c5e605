package learning

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.Mutex
	store map[string]Session
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Session)}
}

func (r *memoryRepository) Create(_ context.Context, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[session.ID]; exists {
		return ErrConflict
	}
	r.store[session.ID] = session
	return nil
}

func (r *memoryRepository) Get(_ context.Context, sessionID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.store[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (r *memoryRepository) Update(_ context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.store[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if err := fn(&sess); err != nil {
		return Session{}, err
	}
	r.store[sessionID] = sess
	return sess, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]Session, error) {
	r.mu.Lock()
	out := make([]Session, 0)
	for _, sess := range r.store {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

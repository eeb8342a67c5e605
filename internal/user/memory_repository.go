package user

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.Mutex
	byID    map[string]User
	byEmail map[string]string // email -> id
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) CreateIfMissing(_ context.Context, u User) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byEmail[u.Email]; ok {
		return r.byID[id], false, nil
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, true, nil
}

func (r *memoryRepository) Credits(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return u.Credits, nil
}

func (r *memoryRepository) UpdateCredits(_ context.Context, userID string, at time.Time, fn func(int) (int, error)) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return 0, ErrNotFound
	}
	next, err := fn(u.Credits)
	if err != nil {
		return 0, err
	}
	u.Credits = next
	u.UpdatedAt = at
	r.byID[userID] = u
	return next, nil
}

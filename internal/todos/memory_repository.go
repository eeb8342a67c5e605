package todos

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.Mutex
	todos map[string]Todo
}

// NewMemoryRepository returns an in-memory todo repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{todos: make(map[string]Todo)}
}

func (r *memoryRepository) Create(_ context.Context, t Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos[t.ID] = t
	return nil
}

func (r *memoryRepository) Get(_ context.Context, todoID string) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[todoID]
	if !ok {
		return Todo{}, ErrNotFound
	}
	return t, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string, filter Filter) ([]Todo, error) {
	r.mu.Lock()
	out := make([]Todo, 0)
	for _, t := range r.todos {
		if t.UserID == userID && filter.matches(t) {
			out = append(out, t)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, todoID string, fn func(*Todo) error) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[todoID]
	if !ok {
		return Todo{}, ErrNotFound
	}
	if err := fn(&t); err != nil {
		return Todo{}, err
	}
	r.todos[todoID] = t
	return t, nil
}

func (r *memoryRepository) Delete(_ context.Context, todoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[todoID]; !ok {
		return ErrNotFound
	}
	delete(r.todos, todoID)
	return nil
}

func (r *memoryRepository) UpdatePending(_ context.Context, userID, planID string, fn func(*Todo) error) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filter := Filter{PlanID: planID, PendingOnly: true}
	updated := make(map[string]Todo)
	for id, t := range r.todos {
		if t.UserID != userID || t.DueDate == "" || !filter.matches(t) {
			continue
		}
		if err := fn(&t); err != nil {
			return 0, err
		}
		updated[id] = t
	}
	for id, t := range updated {
		r.todos[id] = t
	}
	return len(updated), nil
}

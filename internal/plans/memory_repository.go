package plans

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewMemoryRepository returns an in-memory plan repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{plans: make(map[string]Plan)}
}

func (r *memoryRepository) Create(_ context.Context, p Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Steps = append(p.Steps[:0:0], p.Steps...)
	r.plans[p.ID] = p
	return nil
}

func (r *memoryRepository) Get(_ context.Context, planID string) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[planID]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Plan, error) {
	r.mu.RLock()
	out := make([]Plan, 0)
	for _, p := range r.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) Delete(_ context.Context, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[planID]; !ok {
		return ErrNotFound
	}
	delete(r.plans, planID)
	return nil
}

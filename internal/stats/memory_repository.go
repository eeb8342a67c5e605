package stats

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.Mutex
	store map[string]Stats
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Stats)}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.store[userID]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return st, nil
}

func (r *memoryRepository) Create(_ context.Context, st Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[st.UserID]; exists {
		return ErrConflict
	}
	r.store[st.UserID] = st
	return nil
}

func (r *memoryRepository) Update(_ context.Context, userID string, fn func(*Stats) error) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.store[userID]
	if !ok {
		return Stats{}, ErrNotFound
	}
	if err := fn(&st); err != nil {
		return Stats{}, err
	}
	st.UserID = userID
	r.store[userID] = st
	return st, nil
}

func (r *memoryRepository) ResetPeriod(_ context.Context, period Period, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for id, st := range r.store {
		switch period {
		case PeriodWeekly:
			if st.WeeklyLearningTimeMs == 0 {
				continue
			}
			st.WeeklyLearningTimeMs = 0
		case PeriodMonthly:
			if st.MonthlyLearningTimeMs == 0 {
				continue
			}
			st.MonthlyLearningTimeMs = 0
		}
		st.UpdatedAt = at
		r.store[id] = st
		changed++
	}
	return changed, nil
}

package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/support"
)

type resetterFunc func(ctx context.Context, period stats.Period) (int, error)

func (f resetterFunc) ResetPeriod(ctx context.Context, period stats.Period) (int, error) {
	return f(ctx, period)
}

func TestResetJob_ZeroesWeeklyCounters(t *testing.T) {
	ctx := context.Background()
	clock := support.NewManualClock(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	repo := stats.NewMemoryRepository()
	svc, err := stats.NewService(repo, clock, nil, nil, nil, nil)
	require.NoError(t, err)

	for _, id := range []string{"u1", "u2"} {
		_, err := svc.AddLearningTime(ctx, id, 90_000)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	job, err := NewResetJob(svc, slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)

	n, err := job.Run(ctx, stats.PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, st.WeeklyLearningTimeMs)
	assert.Equal(t, int64(90_000), st.MonthlyLearningTimeMs)
	assert.Equal(t, int64(90_000), st.TotalLearningTimeMs)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "learning time reset completed", entry["msg"])
	assert.Equal(t, float64(2), entry["reset_count"])
}

func TestResetJob_PropagatesErrors(t *testing.T) {
	job, err := NewResetJob(resetterFunc(func(context.Context, stats.Period) (int, error) {
		return 0, errors.New("db down")
	}), nil)
	require.NoError(t, err)

	_, err = job.Run(context.Background(), stats.PeriodMonthly)
	assert.ErrorContains(t, err, "reset monthly learning time")
}

func TestNewResetJob_RequiresResetter(t *testing.T) {
	_, err := NewResetJob(nil, nil)
	assert.Error(t, err)
}

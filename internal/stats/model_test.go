package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceStreak(t *testing.T) {
	base := Stats{UserID: "u1", CurrentStreak: 3, LongestStreak: 5, LastActiveDate: "2024-03-10"}

	cases := []struct {
		name        string
		start       Stats
		today       string
		wantCurrent int
		wantLongest int
		wantChanged bool
	}{
		{name: "same day is a no-op", start: base, today: "2024-03-10", wantCurrent: 3, wantLongest: 5},
		{name: "next day extends", start: base, today: "2024-03-11", wantCurrent: 4, wantLongest: 5, wantChanged: true},
		{name: "gap resets", start: base, today: "2024-03-12", wantCurrent: 1, wantLongest: 5, wantChanged: true},
		{name: "clock skew resets", start: base, today: "2024-03-09", wantCurrent: 1, wantLongest: 5, wantChanged: true},
		{name: "never active starts at one", start: Stats{UserID: "u1"}, today: "2024-03-10", wantCurrent: 1, wantLongest: 1, wantChanged: true},
		{
			name:        "extension raises longest",
			start:       Stats{CurrentStreak: 5, LongestStreak: 5, LastActiveDate: "2024-02-29"},
			today:       "2024-03-01",
			wantCurrent: 6,
			wantLongest: 6,
			wantChanged: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := AdvanceStreak(tc.start, tc.today)
			assert.Equal(t, tc.wantChanged, changed)
			assert.Equal(t, tc.wantCurrent, got.CurrentStreak)
			assert.Equal(t, tc.wantLongest, got.LongestStreak)
			assert.Equal(t, tc.today, got.LastActiveDate)
			assert.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak)
		})
	}
}

func TestAdvanceStreak_Idempotent(t *testing.T) {
	once, _ := AdvanceStreak(Stats{CurrentStreak: 2, LongestStreak: 2, LastActiveDate: "2024-01-01"}, "2024-01-02")
	twice, changed := AdvanceStreak(once, "2024-01-02")

	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestAddLearningTime(t *testing.T) {
	st := AddLearningTime(Stats{TotalLearningTimeMs: 100, WeeklyLearningTimeMs: 10, MonthlyLearningTimeMs: 50}, 25)

	assert.Equal(t, int64(125), st.TotalLearningTimeMs)
	assert.Equal(t, int64(35), st.WeeklyLearningTimeMs)
	assert.Equal(t, int64(75), st.MonthlyLearningTimeMs)

	unchanged := AddLearningTime(st, -5)
	assert.Equal(t, st, unchanged)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	_, err = ParsePeriod("daily")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

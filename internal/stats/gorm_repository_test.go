package stats

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormRepositoryGet_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_stats" WHERE user_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := repo.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryGet_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "current_streak", "longest_streak", "last_active_date", "total_learning_time_ms"}).
		AddRow("u1", 3, 5, "2024-03-10", int64(60_000))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_stats" WHERE user_id = $1`)).WillReturnRows(rows)

	st, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 5, st.LongestStreak)
	assert.Equal(t, "2024-03-10", st.LastActiveDate)
	assert.Equal(t, int64(60_000), st.TotalLearningTimeMs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryUpdate_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "user_stats" WHERE user_id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "current_streak", "longest_streak", "last_active_date"}).
			AddRow("u1", 1, 1, "2024-03-10"))
	mock.ExpectExec(`UPDATE "user_stats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	st, err := repo.Update(context.Background(), "u1", func(s *Stats) error {
		next, _ := AdvanceStreak(*s, "2024-03-11")
		*s = next
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryUpdate_RollsBackOnCallbackError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "user_stats"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "u1", func(*Stats) error { return ErrInvalidInput })
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryResetPeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRepository(db)

	mock.ExpectExec(`UPDATE "user_stats" SET .*"monthly_learning_time_ms"=.* WHERE monthly_learning_time_ms <> 0`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ResetPeriod(context.Background(), PeriodMonthly, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

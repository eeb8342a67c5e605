package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/events"
)

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

type fixture struct {
	svc    *Service
	repo   Repository
	stats  *stats.Service
	ledger *credits.Ledger
	pub    *capturePublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := support.NewManualClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	pub := &capturePublisher{}

	statsRepo := stats.NewMemoryRepository()
	evaluator, err := badges.NewEvaluator(badges.NewMemoryRepository(), statsRepo, nil, clock, pub, nil, nil)
	require.NoError(t, err)
	statsSvc, err := stats.NewService(statsRepo, clock, evaluator, pub, nil, nil)
	require.NoError(t, err)

	repo := NewMemoryRepository()
	svc, err := NewService(repo, statsSvc, evaluator, clock, support.NewUUIDGenerator(), pub, nil, nil)
	require.NoError(t, err)
	ledger, err := credits.NewLedger(repo, clock, pub, nil, nil)
	require.NoError(t, err)

	return fixture{svc: svc, repo: repo, stats: statsSvc, ledger: ledger, pub: pub}
}

func TestServiceSignIn_NewUserGetsGrantAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, created, err := f.svc.SignIn(ctx, "  Ada@Example.com ", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "ada", u.DisplayName)
	assert.Equal(t, credits.SignupGrant, u.Credits)

	st, err := f.stats.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentStreak)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, events.KindUserSignedUp, f.pub.events[0].Kind())
	grant := f.pub.events[1].(events.CreditsChanged)
	assert.Equal(t, events.CreditGrant, grant.Operation)
	assert.Equal(t, 50, grant.Balance)
}

func TestServiceSignIn_ExistingUserIsNotGrantedAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, err := f.svc.SignIn(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)
	_, err = f.ledger.ChargeIfAffordable(ctx, first.ID, 5, "chat")
	require.NoError(t, err)

	again, created, err := f.svc.SignIn(ctx, "ADA@example.com", "Someone Else")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 45, again.Credits)
	assert.Equal(t, "Ada", again.DisplayName)
}

func TestServiceSignIn_RejectsMalformedEmail(t *testing.T) {
	f := newFixture(t)

	for _, email := range []string{"", "not-an-email", "Ada <ada@example.com>"} {
		_, _, err := f.svc.SignIn(context.Background(), email, "")
		assert.ErrorIs(t, err, ErrInvalidInput, email)
	}
}

func TestServiceProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, _, err := f.svc.SignIn(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)
	_, err = f.stats.RecordActivity(ctx, u.ID)
	require.NoError(t, err)

	profile, err := f.svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.User.ID)
	assert.Equal(t, 1, profile.Stats.CurrentStreak)
	require.Len(t, profile.Badges, 1)
	assert.Equal(t, "first-step", profile.Badges[0].Name)
}

func TestServiceProfile_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Profile(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLedgerOverMemoryRepository_DeductAndCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, _, err := f.svc.SignIn(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)

	balance, err := f.ledger.Deduct(ctx, u.ID, 45, "admin")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	_, err = f.ledger.ChargeIfAffordable(ctx, u.ID, 10, "plan")
	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)

	balance, err = f.ledger.Deduct(ctx, u.ID, 10, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = f.ledger.Balance(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepositoryUpdateCredits_RejectsWithoutWriting(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	repo := NewGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "credits"}).AddRow("u1", "ada@example.com", 5))
	mock.ExpectRollback()

	_, err = repo.UpdateCredits(context.Background(), "u1", time.Now().UTC(), func(current int) (int, error) {
		if current < 10 {
			return current, credits.ErrInsufficientCredits
		}
		return current - 10, nil
	})
	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepositoryUpdateCredits_Commits(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	repo := NewGormRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "credits"}).AddRow("u1", "ada@example.com", 50))
	at := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE "users" SET "credits"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(45, at, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := repo.UpdateCredits(context.Background(), "u1", at, func(current int) (int, error) {
		return current - 5, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 45, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

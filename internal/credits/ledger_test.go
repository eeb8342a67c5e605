package credits

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/events"
)

var errUnknownUser = errors.New("unknown user")

type fakeStore struct {
	mu       sync.Mutex
	balances map[string]int
	stamps   []time.Time
}

func newFakeStore(balances map[string]int) *fakeStore {
	return &fakeStore{balances: balances}
}

func (s *fakeStore) Credits(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return 0, errUnknownUser
	}
	return b, nil
}

func (s *fakeStore) UpdateCredits(_ context.Context, userID string, at time.Time, fn func(int) (int, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return 0, errUnknownUser
	}
	next, err := fn(b)
	if err != nil {
		return 0, err
	}
	s.balances[userID] = next
	s.stamps = append(s.stamps, at)
	return next, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func newTestLedger(t *testing.T, store Store, pub events.Publisher) *Ledger {
	t.Helper()
	clock := support.NewManualClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	l, err := NewLedger(store, clock, pub, nil, nil)
	require.NoError(t, err)
	return l
}

func TestLedger_ChargeIfAffordable(t *testing.T) {
	pub := &recordingPublisher{}
	l := newTestLedger(t, newFakeStore(map[string]int{"u1": 50}), pub)

	balance, err := l.ChargeIfAffordable(context.Background(), "u1", 5, "chat")
	require.NoError(t, err)
	assert.Equal(t, 45, balance)

	require.Len(t, pub.events, 1)
	changed, ok := pub.events[0].(events.CreditsChanged)
	require.True(t, ok)
	assert.Equal(t, events.CreditCharge, changed.Operation)
	assert.Equal(t, 5, changed.Amount)
	assert.Equal(t, 45, changed.Balance)
	assert.Equal(t, "chat", changed.Reason)
}

func TestLedger_ChargeRejectsWhenUnaffordable(t *testing.T) {
	pub := &recordingPublisher{}
	l := newTestLedger(t, newFakeStore(map[string]int{"u1": 5}), pub)

	_, err := l.ChargeIfAffordable(context.Background(), "u1", 10, "plan")
	require.ErrorIs(t, err, ErrInsufficientCredits)

	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
	assert.Empty(t, pub.events)
}

func TestLedger_ChargeExactBalance(t *testing.T) {
	l := newTestLedger(t, newFakeStore(map[string]int{"u1": 5}), nil)

	balance, err := l.ChargeIfAffordable(context.Background(), "u1", 5, "chat")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	l := newTestLedger(t, newFakeStore(map[string]int{"u1": 5}), nil)
	ctx := context.Background()

	_, err := l.ChargeIfAffordable(ctx, "u1", 0, "chat")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Grant(ctx, "u1", -1, "admin")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Deduct(ctx, "u1", 0, "admin")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedger_DeductFloorsAtZero(t *testing.T) {
	pub := &recordingPublisher{}
	l := newTestLedger(t, newFakeStore(map[string]int{"u1": 5}), pub)

	balance, err := l.Deduct(context.Background(), "u1", 10, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	require.Len(t, pub.events, 1)
	changed := pub.events[0].(events.CreditsChanged)
	assert.Equal(t, events.CreditDeduct, changed.Operation)
	assert.Equal(t, 5, changed.Amount)
}

func TestLedger_Grant(t *testing.T) {
	l := newTestLedger(t, newFakeStore(map[string]int{"u1": 0}), nil)

	balance, err := l.Grant(context.Background(), "u1", SignupGrant, "signup")
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
}

func TestLedger_StampsWritesWithClock(t *testing.T) {
	store := newFakeStore(map[string]int{"u1": 20})
	clock := support.NewManualClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	l, err := NewLedger(store, clock, nil, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.ChargeIfAffordable(ctx, "u1", 5, "chat")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = l.Grant(ctx, "u1", 10, "admin")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = l.Deduct(ctx, "u1", 3, "admin")
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC),
	}, store.stamps)
}

func TestLedger_PropagatesStoreErrors(t *testing.T) {
	l := newTestLedger(t, newFakeStore(map[string]int{}), nil)

	_, err := l.ChargeIfAffordable(context.Background(), "ghost", 5, "chat")
	assert.ErrorIs(t, err, errUnknownUser)
}

func TestLedger_ConcurrentChargesNeverOverdraw(t *testing.T) {
	store := newFakeStore(map[string]int{"u1": 50})
	l := newTestLedger(t, store, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.ChargeIfAffordable(context.Background(), "u1", 5, "chat"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

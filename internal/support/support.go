// Package support holds the small collaborators every service is constructed with.
package support

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO calendar date used for day-granularity bookkeeping.
const DateLayout = "2006-01-02"

// ===== Clock =====

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Today returns the current UTC calendar date. Day boundaries are fixed to UTC for every user.
func Today(c Clock) string {
	return c.Now().UTC().Format(DateLayout)
}

// DaysBetween returns to - from in whole calendar days.
func DaysBetween(from, to string) (int, error) {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", from, err)
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", to, err)
	}
	return int(b.Sub(a).Hours() / 24), nil
}

// ManualClock is a settable Clock for tests and replays.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts a ManualClock at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ===== ID Generator =====

// IDGenerator produces unique identifiers for new records.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

// NewUUIDGenerator returns an IDGenerator that produces v7 UUIDs where available, falling back to v4.
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

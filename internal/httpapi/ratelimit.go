package httpapi

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	sharederrors "github.com/focusnest/planner-service/shared/errors"
	"github.com/focusnest/planner-service/shared/logging"
)

// RateLimiterConfig sizes the per-user token buckets.
type RateLimiterConfig struct {
	PerMinute       int
	Burst           int
	CleanupInterval time.Duration
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per account for assistant-backed routes.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its background eviction loop. Call Stop to end the loop.
func NewRateLimiter(cfg RateLimiterConfig, logger *slog.Logger) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Discard()
	}
	rl := &RateLimiter{
		limit:    rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:    cfg.Burst,
		ttl:      cfg.CleanupInterval * 2,
		logger:   logger,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

// Stop ends the eviction loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow consumes a token for userID.
func (rl *RateLimiter) Allow(userID string) bool {
	return rl.limiterFor(userID).Allow()
}

// Middleware rejects requests over the account's allowance with 429. It must run after account resolution.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := accountID(r.Context())
		if userID == "" {
			writeError(w, r, sharederrors.CodeUnauthorized, "missing authenticated user")
			return
		}
		if !rl.Allow(userID) {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("userId", userID),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			writeError(w, r, sharederrors.CodeRateLimited, "too many requests, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len reports how many accounts currently hold a bucket.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(userID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if ul, ok := rl.limiters[userID]; ok {
		ul.lastAccess = now
		return ul.limiter
	}
	ul := &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: now}
	rl.limiters[userID] = ul
	return ul.limiter
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > rl.ttl {
			delete(rl.limiters, userID)
		}
	}
}

func (rl *RateLimiter) retryAfterSeconds() int {
	secs := int(math.Ceil(1.0 / float64(rl.limit)))
	if secs < 1 {
		secs = 1
	}
	return secs
}

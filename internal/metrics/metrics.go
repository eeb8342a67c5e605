// Package metrics exposes Prometheus counters for credit metering and learning activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the surface services depend on.
type Recorder interface {
	RecordCharge(reason string, credits int)
	RecordInsufficientCredits(reason string)
	RecordGrant(reason string, credits int)
	RecordDeduct(reason string, credits int)
	RecordSessionCompleted(duration time.Duration)
	RecordStreakAdvanced(current int)
	RecordBadgeAwarded(badge string)
	RecordEventDropped(kind string)
	RecordAssistantFallback(feature string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	creditsCharged      *prometheus.CounterVec
	insufficientCredits *prometheus.CounterVec
	creditsGranted      *prometheus.CounterVec
	creditsDeducted     *prometheus.CounterVec
	sessionsCompleted   prometheus.Counter
	sessionDuration     prometheus.Histogram
	streakLength        prometheus.Histogram
	badgesAwarded       *prometheus.CounterVec
	eventsDropped       *prometheus.CounterVec
	assistantFallbacks  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		creditsCharged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_credits_charged_total",
			Help: "Credits charged for paid actions.",
		}, []string{"reason"}),
		insufficientCredits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_insufficient_credits_total",
			Help: "Paid actions rejected for lack of credits.",
		}, []string{"reason"}),
		creditsGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_credits_granted_total",
			Help: "Credits granted to users.",
		}, []string{"reason"}),
		creditsDeducted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_credits_deducted_total",
			Help: "Credits removed through administrative deductions.",
		}, []string{"reason"}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_learning_sessions_completed_total",
			Help: "Learning sessions closed.",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_learning_session_duration_seconds",
			Help:    "Duration of closed learning sessions.",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400},
		}),
		streakLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_streak_length_days",
			Help:    "Current streak after each streak transition.",
			Buckets: []float64{1, 2, 3, 7, 14, 30, 60, 100, 365},
		}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_badges_awarded_total",
			Help: "Badges awarded by name.",
		}, []string{"badge"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_events_dropped_total",
			Help: "Domain events dropped because the dispatcher buffer was full.",
		}, []string{"kind"}),
		assistantFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_assistant_fallbacks_total",
			Help: "Responses served from templates because the model call failed.",
		}, []string{"feature"}),
	}

	reg.MustRegister(
		c.creditsCharged,
		c.insufficientCredits,
		c.creditsGranted,
		c.creditsDeducted,
		c.sessionsCompleted,
		c.sessionDuration,
		c.streakLength,
		c.badgesAwarded,
		c.eventsDropped,
		c.assistantFallbacks,
	)

	return c
}

func (c *Collector) RecordCharge(reason string, credits int) {
	c.creditsCharged.WithLabelValues(reason).Add(float64(credits))
}

func (c *Collector) RecordInsufficientCredits(reason string) {
	c.insufficientCredits.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordGrant(reason string, credits int) {
	c.creditsGranted.WithLabelValues(reason).Add(float64(credits))
}

func (c *Collector) RecordDeduct(reason string, credits int) {
	c.creditsDeducted.WithLabelValues(reason).Add(float64(credits))
}

func (c *Collector) RecordSessionCompleted(duration time.Duration) {
	c.sessionsCompleted.Inc()
	c.sessionDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordStreakAdvanced(current int) {
	c.streakLength.Observe(float64(current))
}

func (c *Collector) RecordBadgeAwarded(badge string) {
	c.badgesAwarded.WithLabelValues(badge).Inc()
}

func (c *Collector) RecordEventDropped(kind string) {
	c.eventsDropped.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordAssistantFallback(feature string) {
	c.assistantFallbacks.WithLabelValues(feature).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordCharge(string, int) {}
func (Noop) RecordInsufficientCredits(string) {}
func (Noop) RecordGrant(string, int) {}
func (Noop) RecordDeduct(string, int) {}
func (Noop) RecordSessionCompleted(time.Duration) {}
func (Noop) RecordStreakAdvanced(int) {}
func (Noop) RecordBadgeAwarded(string) {}
func (Noop) RecordEventDropped(string) {}
func (Noop) RecordAssistantFallback(string) {}

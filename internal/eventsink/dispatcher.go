// Package eventsink delivers domain events to a durable or logging sink off the request path.
package eventsink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/shared/events"
	"github.com/focusnest/planner-service/shared/logging"
)

// Sink persists or forwards a single event.
type Sink interface {
	Write(ctx context.Context, event events.Event) error
}

const (
	defaultBufferSize = 256
	writeTimeout      = 5 * time.Second
)

// Dispatcher is an events.Publisher that queues events in a bounded buffer and writes them to a
// Sink from a background worker. When the buffer is full the event is dropped and counted.
type Dispatcher struct {
	sink    Sink
	queue   chan events.Event
	metrics metrics.Recorder
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ events.Publisher = (*Dispatcher)(nil)

// NewDispatcher starts a dispatcher with the given buffer size.
func NewDispatcher(sink Sink, bufferSize int, recorder metrics.Recorder, logger *slog.Logger) (*Dispatcher, error) {
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan events.Event, bufferSize),
		metrics: recorder,
		logger:  logger,
	}
	d.wg.Add(1)
	go d.run()
	return d, nil
}

// Publish enqueues event without blocking. It never fails the caller.
func (d *Dispatcher) Publish(_ context.Context, event events.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}
	select {
	case d.queue <- event:
	default:
		d.drop(event, "buffer full")
	}
}

// Close stops accepting events and waits for queued ones to be written or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := d.sink.Write(ctx, event); err != nil {
			d.logger.Error("event write failed",
				slog.String("kind", string(event.Kind())),
				slog.String("subject", event.Subject()),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}

func (d *Dispatcher) drop(event events.Event, reason string) {
	d.metrics.RecordEventDropped(string(event.Kind()))
	d.logger.Warn("event dropped",
		slog.String("kind", string(event.Kind())),
		slog.String("subject", event.Subject()),
		slog.String("reason", reason),
	)
}

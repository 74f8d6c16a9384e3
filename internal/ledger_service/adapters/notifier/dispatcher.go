package notifier

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

// DefaultSinkTimeout bounds a single sink delivery.
const DefaultSinkTimeout = 10 * time.Second

// Sink delivers an already redacted event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event domain.Event) error
}

// Dispatcher decouples committed ledger operations from slow notification
// channels. Publish never blocks; events beyond the queue capacity are dropped.
type Dispatcher struct {
	queue   chan domain.Event
	done    chan struct{}
	closed  atomic.Bool
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher with a queue of queueSize events.
func NewDispatcher(queueSize int, timeout time.Duration, logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &Dispatcher{
		queue:   make(chan domain.Event, queueSize),
		done:    make(chan struct{}),
		sinks:   sinks,
		timeout: timeout,
		logger:  logger.With("component", "notifier"),
	}
}

// Publish enqueues event for delivery. It satisfies app.EventPublisher.
func (d *Dispatcher) Publish(event domain.Event) {
	if d.closed.Load() {
		droppedCounter.WithLabelValues("closed").Inc()
		return
	}
	select {
	case d.queue <- redactEvent(event):
	default:
		droppedCounter.WithLabelValues("queue_full").Inc()
		d.logger.Warn("Notification queue full, dropping event", "kind", event.Kind())
	}
}

// Run delivers queued events until ctx is cancelled or Close is called, then
// flushes whatever is still buffered.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Notifier started", "sinks", len(d.sinks), "queue_size", cap(d.queue))
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		case <-ctx.Done():
			d.drain()
			return nil
		case <-d.done:
			d.drain()
			return nil
		}
	}
}

// Close stops accepting events. Run returns after flushing the queue.
func (d *Dispatcher) Close() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.done)
	}
}

func (d *Dispatcher) drain() {
	d.closed.Store(true)
	for {
		select {
		case event := <-d.queue:
			d.deliver(context.Background(), event)
		default:
			d.logger.Info("Notifier stopped")
			return
		}
	}
}

func (d *Dispatcher) deliver(parent context.Context, event domain.Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
		err := sink.Deliver(ctx, event)
		cancel()
		if err != nil {
			deliveriesCounter.WithLabelValues(sink.Name(), "failed").Inc()
			d.logger.Error("Notification delivery failed", "sink", sink.Name(), "kind", event.Kind(), "error", err)
			continue
		}
		deliveriesCounter.WithLabelValues(sink.Name(), "delivered").Inc()
	}
}

// redactEvent strips credentials from event payloads before any sink sees them.
func redactEvent(event domain.Event) domain.Event {
	if e, ok := event.(domain.OrderCreatedEvent); ok {
		e.Meta = Redact(e.Meta)
		return e
	}
	return event
}

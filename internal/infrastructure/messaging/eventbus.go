// Package messaging implements the in-process event bus that carries domain
// events from committed commands to the Redis projections.
package messaging

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
)

var (
	ErrEventBusClosed = errors.New("event bus is closed")
	ErrHandlerPanic   = errors.New("handler panicked")
	ErrNilHandler     = errors.New("handler cannot be nil")
	ErrNilEvent       = errors.New("event cannot be nil")
)

// InMemoryEventBusConfig configures NewInMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode hands deliveries to WorkerPoolSize goroutines instead of
	// running them inside Publish.
	AsyncMode      bool
	WorkerPoolSize int
	// QueueSize bounds pending async deliveries; Publish blocks when full.
	QueueSize     int
	Logger        *logger.Logger
	EnableMetrics bool
}

func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		QueueSize:      256,
		EnableMetrics:  true,
	}
}

type delivery struct {
	event   shared.Event
	handler shared.EventHandler
}

// InMemoryEventBus implements shared.EventBus for a single instance.
// Projections are rebuilt by the scheduler, so a lost event only delays them.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	wildcard []shared.EventHandler
	closed   bool

	queue   chan delivery // nil in sync mode
	pending sync.WaitGroup
	workers sync.WaitGroup

	log     *logger.Logger
	metrics *EventBusMetrics
}

func NewInMemoryEventBus(cfg InMemoryEventBusConfig) *InMemoryEventBus {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	b := &InMemoryEventBus{
		byType: make(map[shared.EventType][]shared.EventHandler),
		log:    cfg.Logger.With(logger.Component("eventbus")),
	}
	if cfg.EnableMetrics {
		b.metrics = &EventBusMetrics{}
	}

	if cfg.AsyncMode {
		workers := max(cfg.WorkerPoolSize, 1)
		b.queue = make(chan delivery, max(cfg.QueueSize, workers))
		b.workers.Add(workers)
		for range workers {
			go b.work()
		}
	}
	return b
}

func (b *InMemoryEventBus) work() {
	defer b.workers.Done()
	for d := range b.queue {
		b.deliver(d)
		b.pending.Done()
	}
}

// Subscribe registers handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.add(handler, func() { b.byType[eventType] = append(b.byType[eventType], handler) })
}

// SubscribeAll registers handler for every event type.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.add(handler, func() { b.wildcard = append(b.wildcard, handler) })
}

func (b *InMemoryEventBus) add(handler shared.EventHandler, register func()) error {
	if handler == nil {
		return ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	register()
	return nil
}

// Publish delivers event to its handlers. Handler errors are logged and
// never returned: the command that raised the event has already committed.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrEventBusClosed
	}
	if b.metrics != nil {
		b.metrics.published.Add(1)
	}

	targets := append(append([]shared.EventHandler(nil), b.byType[event.EventType()]...), b.wildcard...)
	for _, h := range targets {
		d := delivery{event: event, handler: h}
		if b.queue == nil {
			b.deliver(d)
			continue
		}
		// the read lock keeps Close from closing the queue under us
		b.pending.Add(1)
		b.queue <- d
	}
	return nil
}

func (b *InMemoryEventBus) deliver(d delivery) {
	start := time.Now()
	err := safeCall(d)
	if b.metrics != nil {
		b.metrics.record(time.Since(start), err)
	}
	if err != nil {
		b.log.Error("event handler failed",
			logger.String("event_id", d.event.EventID()),
			logger.String("event_type", string(d.event.EventType())),
			logger.FccID(d.event.AggregateID()),
			logger.Err(err),
		)
	}
}

func safeCall(d delivery) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return d.handler(d.event)
}

// Wait blocks until every queued delivery has run.
func (b *InMemoryEventBus) Wait() {
	b.pending.Wait()
}

// Close rejects further events, drains the queue and stops the workers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.queue != nil {
		close(b.queue)
	}
	b.mu.Unlock()

	b.workers.Wait()
	b.log.Info("event bus closed")
	return nil
}

// Metrics returns the counters, or nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// EventBusMetrics counts publishes and handler runs.
type EventBusMetrics struct {
	published atomic.Int64
	runs      atomic.Int64
	failures  atomic.Int64
	busyNanos atomic.Int64
}

func (m *EventBusMetrics) record(d time.Duration, err error) {
	m.runs.Add(1)
	m.busyNanos.Add(int64(d))
	if err != nil {
		m.failures.Add(1)
	}
}

// EventBusMetricsSnapshot is a point-in-time copy of EventBusMetrics.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64         `json:"total_published"`
	TotalHandlerExecs      int64         `json:"total_handler_execs"`
	HandlerFailures        int64         `json:"handler_failures"`
	HandlerSuccessRate     float64       `json:"handler_success_rate"`
	AverageHandlerDuration time.Duration `json:"average_handler_duration"`
}

func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	s := EventBusMetricsSnapshot{
		TotalPublished:     m.published.Load(),
		TotalHandlerExecs:  m.runs.Load(),
		HandlerFailures:    m.failures.Load(),
		HandlerSuccessRate: 1,
	}
	if s.TotalHandlerExecs > 0 {
		s.HandlerSuccessRate = float64(s.TotalHandlerExecs-s.HandlerFailures) / float64(s.TotalHandlerExecs)
		s.AverageHandlerDuration = time.Duration(m.busyNanos.Load() / s.TotalHandlerExecs)
	}
	return s
}

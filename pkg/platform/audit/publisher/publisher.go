// Package publisher delivers audit events to a Store, either synchronously or
// through a bounded buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "notaria/pkg/platform/audit"
	"notaria/pkg/platform/circuit"
)

// ErrBufferFull is returned by Emit in async mode when the buffer has no room.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher fans audit events into a store. While the store's circuit breaker
// is open every event is still written as a probe; an event whose write fails
// is dropped and counted instead of returned as an error.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker

	buffer chan audit.Event
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of the given size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBreaker replaces the default store circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// NewPublisher creates a publisher. Without WithAsyncBuffer every Emit writes
// through to the store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		logger:  slog.Default(),
		breaker: circuit.New("audit_store", circuit.WithFailureThreshold(5)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. A zero Timestamp is set to now.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.buffer == nil {
		return p.persist(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.persist(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.incDropped()
		return ErrBufferFull
	}
}

// List returns recorded events for an entity.
func (p *Publisher) List(ctx context.Context, entityID string) ([]audit.Event, error) {
	return p.store.ListByEntity(ctx, entityID)
}

// Close stops accepting buffered events and drains whatever is queued.
func (p *Publisher) Close() {
	if p.buffer == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.buffer)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.persist(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"event_type", event.EventType,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if p.breaker.IsOpen() {
		// Probe the store; a success counts toward closing the breaker.
		if err := p.store.Append(ctx, event); err != nil {
			p.breaker.RecordFailure()
			p.incDropped()
			return nil
		}
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.logger.Info("audit store circuit closed")
			p.setBreakerState(false)
		}
		p.incPersisted()
		return nil
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.incFailures()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.Warn("audit store circuit opened", "error", err)
			p.setBreakerState(true)
		}
		return err
	}
	p.breaker.RecordSuccess()
	p.incPersisted()
	return nil
}

func (p *Publisher) incPersisted() {
	if p.metrics != nil {
		p.metrics.Persisted.Inc()
	}
}

func (p *Publisher) incDropped() {
	if p.metrics != nil {
		p.metrics.Dropped.Inc()
	}
}

func (p *Publisher) incFailures() {
	if p.metrics != nil {
		p.metrics.PersistFailures.Inc()
	}
}

func (p *Publisher) setBreakerState(open bool) {
	if p.metrics != nil {
		p.metrics.SetCircuitBreakerState(open)
	}
}

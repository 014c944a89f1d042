package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/backline-audio/engine/internal/logging"
)

// Bus is a buffered, worker-pool event bus with non-blocking publish:
// producers (the song loader, the song cache, the output driver, the import
// pipeline and the control plane) never wait on a slow or absent consumer. Events are dropped, not queued
// indefinitely, once the buffer fills.
type Bus struct {
	eventChan chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running atomic.Bool
	mu      sync.Mutex

	consumers []Consumer
	stats     Stats
	logger    *slog.Logger
	workers   int
}

// Config sizes the bus.
type Config struct {
	BufferSize int
	Workers    int
}

func DefaultConfig() Config {
	return Config{BufferSize: 4096, Workers: 2}
}

// New creates a bus. Its worker pool starts draining when the first
// consumer is registered through RegisterConsumer.
func New(cfg Config) *Bus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		eventChan: make(chan Event, cfg.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logging.ForService("events"),
		workers:   cfg.Workers,
	}
}

// RegisterConsumer adds consumer and starts the worker pool on first call.
func (b *Bus) RegisterConsumer(c Consumer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.consumers {
		if existing.Name() == c.Name() {
			return fmt.Errorf("consumer %s already registered", c.Name())
		}
	}
	b.consumers = append(b.consumers, c)

	if len(b.consumers) == 1 && !b.running.Load() {
		b.start()
	}
	return nil
}

// TryPublish attempts a non-blocking publish. Returns false if dropped
// (no consumers yet, or the buffer is full).
func (b *Bus) TryPublish(topic Topic, payload any) bool {
	if b == nil || !b.running.Load() {
		return false
	}

	evt := Event{Topic: topic, Payload: payload, Timestamp: time.Now()}
	select {
	case b.eventChan <- evt:
		atomic.AddUint64(&b.stats.EventsReceived, 1)
		return true
	default:
		atomic.AddUint64(&b.stats.EventsDropped, 1)
		b.logger.Debug("event dropped, buffer full", "topic", topic)
		return false
	}
}

func (b *Bus) start() {
	if b.running.Swap(true) {
		return
	}
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
}

func (b *Bus) worker(id int) {
	defer b.wg.Done()
	logger := b.logger.With("worker_id", id)

	for {
		select {
		case <-b.ctx.Done():
			return
		case evt, ok := <-b.eventChan:
			if !ok {
				return
			}
			b.dispatch(evt, logger)
		}
	}
}

func (b *Bus) dispatch(evt Event, logger *slog.Logger) {
	b.mu.Lock()
	consumers := make([]Consumer, len(b.consumers))
	copy(consumers, b.consumers)
	b.mu.Unlock()

	for _, c := range consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					atomic.AddUint64(&b.stats.ConsumerPanics, 1)
					logger.Error("consumer panicked", "consumer", c.Name(), "panic", r, "topic", evt.Topic)
				}
			}()
			c.Handle(evt)
			atomic.AddUint64(&b.stats.EventsHandled, 1)
		}()
	}
}

// Shutdown stops the worker pool, waiting up to timeout for in-flight
// dispatches to finish.
func (b *Bus) Shutdown(timeout time.Duration) error {
	if b == nil {
		return nil
	}
	b.running.Store(false)
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("event bus shutdown timeout exceeded")
	}
}

func (b *Bus) Stats() Stats {
	return Stats{
		EventsReceived: atomic.LoadUint64(&b.stats.EventsReceived),
		EventsDropped:  atomic.LoadUint64(&b.stats.EventsDropped),
		EventsHandled:  atomic.LoadUint64(&b.stats.EventsHandled),
		ConsumerPanics: atomic.LoadUint64(&b.stats.ConsumerPanics),
	}
}

// Package events carries notifications about edit sessions to interested
// parts of a program, such as history persistence.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kcaldas/linenoise/pkg/logging"
)

const defaultTopicBuffer = 256

// EventHandler is a function that handles an event
type EventHandler func(event interface{})

// Publisher allows publishing events
type Publisher interface {
	Publish(eventType string, event interface{})
}

// Subscriber allows subscribing to events
type Subscriber interface {
	Subscribe(eventType string, handler EventHandler)
}

// EventBus provides both publishing and subscribing
type EventBus interface {
	Publisher
	Subscriber
}

// Topical events know their own topic.
type Topical interface {
	Topic() string
}

// PublishEvent publishes e on its own topic. A nil publisher is ignored.
func PublishEvent(p Publisher, e Topical) {
	if p == nil {
		return
	}
	p.Publish(e.Topic(), e)
}

// InMemoryBus delivers events in order per topic on one goroutine per topic.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler
	workers     map[string]*topicWorker
	bufferSize  int
	dropped     atomic.Int64
	logger      logging.Logger
}

// BusOption configures an InMemoryBus.
type BusOption func(*InMemoryBus)

// WithBuffer sets the per-topic queue size. Values below 1 become 1.
func WithBuffer(size int) BusOption {
	return func(b *InMemoryBus) {
		b.bufferSize = max(size, 1)
	}
}

// WithLogger sets the logger used for dropped events and handler panics.
func WithLogger(logger logging.Logger) BusOption {
	return func(b *InMemoryBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewEventBus creates a new event bus.
func NewEventBus(opts ...BusOption) *InMemoryBus {
	b := &InMemoryBus{
		subscribers: make(map[string][]EventHandler),
		workers:     make(map[string]*topicWorker),
		bufferSize:  defaultTopicBuffer,
		logger:      logging.NewDisabledLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe adds a handler for a specific event type.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish hands the event to the topic worker. It never blocks the editor:
// when the topic queue is full the event is dropped.
func (b *InMemoryBus) Publish(eventType string, event interface{}) {
	handlers := b.handlersFor(eventType)
	if len(handlers) == 0 {
		return
	}

	// Held across the send so Shutdown cannot close the queue underneath it.
	b.mu.Lock()
	defer b.mu.Unlock()

	worker := b.workerLocked(eventType)
	if worker == nil {
		return
	}
	env := eventEnvelope{event: event, handlers: handlers}

	select {
	case worker.ch <- env:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event queue full, dropping event", "topic", eventType)
	}
}

// DroppedCount returns the number of events dropped due to full queues.
func (b *InMemoryBus) DroppedCount() int64 {
	return b.dropped.Load()
}

// Shutdown drains and stops all topic workers. Events published afterwards
// are discarded.
func (b *InMemoryBus) Shutdown() {
	b.mu.Lock()
	workers := b.workers
	b.workers = nil
	b.mu.Unlock()

	for _, w := range workers {
		w.stop()
	}
}

// handlersFor snapshots handlers for the topic.
func (b *InMemoryBus) handlersFor(eventType string) []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]EventHandler, len(b.subscribers[eventType]))
	copy(handlers, b.subscribers[eventType])
	return handlers
}

// workerLocked returns the per-topic worker, or nil after Shutdown.
func (b *InMemoryBus) workerLocked(eventType string) *topicWorker {
	if b.workers == nil {
		return nil
	}
	if worker, ok := b.workers[eventType]; ok {
		return worker
	}

	worker := newTopicWorker(b.bufferSize, b.logger.With("topic", eventType))
	b.workers[eventType] = worker
	return worker
}

type eventEnvelope struct {
	event    interface{}
	handlers []EventHandler
}

type topicWorker struct {
	ch       chan eventEnvelope
	wg       sync.WaitGroup
	stopOnce sync.Once
	logger   logging.Logger
}

func newTopicWorker(buffer int, logger logging.Logger) *topicWorker {
	w := &topicWorker{
		ch:     make(chan eventEnvelope, buffer),
		logger: logger,
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *topicWorker) run() {
	defer w.wg.Done()
	for env := range w.ch {
		for _, handler := range env.handlers {
			func(h EventHandler, e interface{}) {
				defer func() {
					if r := recover(); r != nil {
						w.logger.Error("event handler panicked", "panic", fmt.Sprint(r))
					}
				}()
				h(e)
			}(handler, env.event)
		}
	}
}

func (w *topicWorker) stop() {
	w.stopOnce.Do(func() {
		close(w.ch)
		w.wg.Wait()
	})
}

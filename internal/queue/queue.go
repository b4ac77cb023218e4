package queue

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Queue is an in-memory buffered queue fanning each item out to its subscribers.
// It carries import batches and property events.
type Queue[T any] struct {
	name     string
	items    chan T
	stopped  chan struct{}
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(T) error
}

// New creates a queue with the specified buffer size
func New[T any](name string, bufferSize int, logger *logrus.Logger) *Queue[T] {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Queue[T]{
		name:     name,
		items:    make(chan T, bufferSize),
		stopped:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(T) error, 0),
	}
}

// Push adds an item to the queue without blocking
func (q *Queue[T]) Push(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- item:
		q.logger.WithFields(logrus.Fields{
			"queue":  q.name,
			"length": len(q.items),
		}).Debug("Pushed item to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish pushes item, so a queue of events can serve as an event publisher
func (q *Queue[T]) Publish(_ context.Context, item T) error {
	return q.Push(item)
}

// Subscribe adds a handler function that will be called for each item
func (q *Queue[T]) Subscribe(handler func(T) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *Queue[T]) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

// process consumes items until the queue is closed and drained
func (q *Queue[T]) process() {
	defer close(q.stopped)
	for item := range q.items {
		q.dispatch(item)
	}
}

// dispatch sends the item to all subscribed handlers
func (q *Queue[T]) dispatch(item T) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(item); err != nil {
			q.logger.WithError(err).WithField("queue", q.name).Error("Handler failed to process item")
		}
	}
}

// Close stops accepting items and waits until the buffered ones are handled
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.items)
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the current number of items in the queue
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *Queue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

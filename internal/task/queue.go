package task

import (
	"errors"
	"sync"
	"time"
)

// DefaultQueueCapacity is the default buffer size of the task queue.
// Large enough that producers never block on realistic directory trees.
const DefaultQueueCapacity = 65536

// ErrQueueClosed is returned by Push after Close has been called.
var ErrQueueClosed = errors.New("task queue is closed")

// ErrQueueFull is returned when the queue buffer is exhausted.
// This is a fatal condition: producers are expected to never block, so a
// full queue means the workers have stalled or the capacity is misconfigured.
var ErrQueueFull = errors.New("task queue is full")

// Queue is a thread-safe FIFO carrying tasks from multiple producers to
// multiple consumers. Push never blocks; Pop blocks up to a timeout so
// consumers can observe shutdown without busy-waiting.
//
// The queue performs no deduplication. Duplicate tasks for the same path
// are accepted; downstream hash-keyed idempotence is the correctness
// mechanism.
type Queue struct {
	ch chan Task

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue with the given capacity (0 = default).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		ch: make(chan Task, capacity),
	}
}

// Push enqueues a task without blocking the caller.
// Returns ErrQueueClosed after Close, ErrQueueFull if the buffer is exhausted.
func (q *Queue) Push(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop dequeues the next task, blocking up to timeout.
// The second return value is false when no task was available within the
// timeout or the queue was closed and drained.
func (q *Queue) Pop(timeout time.Duration) (Task, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case t, ok := <-q.ch:
		if !ok {
			return Task{}, false
		}
		return t, true
	case <-timer.C:
		return Task{}, false
	}
}

// TryPop dequeues without waiting. Used to drain a closed queue after
// the workers have stopped.
func (q *Queue) TryPop() (Task, bool) {
	select {
	case t, ok := <-q.ch:
		if !ok {
			return Task{}, false
		}
		return t, true
	default:
		return Task{}, false
	}
}

// Len returns the number of buffered tasks.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close marks the queue closed. Subsequent pushes fail; buffered tasks
// remain poppable until drained. Safe to call multiple times.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

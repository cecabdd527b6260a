package task

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushPop_FIFO(t *testing.T) {
	// Given: a queue with three tasks from one producer
	q := NewQueue(16)
	require.NoError(t, q.Push(NewTask(KindAdd, "a.txt")))
	require.NoError(t, q.Push(NewTask(KindModify, "b.txt")))
	require.NoError(t, q.Push(NewTask(KindDelete, "c.txt")))

	// When: tasks are popped
	// Then: they arrive in push order
	for _, want := range []string{"a.txt", "b.txt", "c.txt"} {
		got, ok := q.Pop(time.Second)
		require.True(t, ok)
		assert.Equal(t, want, got.Path)
	}
}

func TestQueue_Pop_TimesOutWhenEmpty(t *testing.T) {
	q := NewQueue(16)

	start := time.Now()
	_, ok := q.Pop(50 * time.Millisecond)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestQueue_Push_NeverBlocks(t *testing.T) {
	// Given: a queue at capacity
	q := NewQueue(2)
	require.NoError(t, q.Push(NewTask(KindAdd, "a")))
	require.NoError(t, q.Push(NewTask(KindAdd, "b")))

	// When: another push arrives
	done := make(chan error, 1)
	go func() { done <- q.Push(NewTask(KindAdd, "c")) }()

	// Then: the call returns promptly with ErrQueueFull instead of blocking
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("push blocked on a full queue")
	}
}

func TestQueue_AcceptsDuplicatePaths(t *testing.T) {
	q := NewQueue(16)

	require.NoError(t, q.Push(NewTask(KindAdd, "same.txt")))
	require.NoError(t, q.Push(NewTask(KindModify, "same.txt")))

	assert.Equal(t, 2, q.Len())
}

func TestQueue_Close_FailsFurtherPushes(t *testing.T) {
	q := NewQueue(16)
	require.NoError(t, q.Push(NewTask(KindAdd, "a")))

	q.Close()
	q.Close() // idempotent

	assert.ErrorIs(t, q.Push(NewTask(KindAdd, "b")), ErrQueueClosed)

	// Buffered tasks remain poppable after close.
	got, ok := q.Pop(time.Second)
	require.True(t, ok)
	assert.Equal(t, "a", got.Path)

	_, ok = q.TryPop()
	assert.False(t, ok)
}

func TestQueue_ConcurrentProducers_NoTaskLost(t *testing.T) {
	// Given: a simulated scanner and a simulated watcher, 1000 tasks each
	const perProducer = 1000
	q := NewQueue(4 * perProducer)

	var wg sync.WaitGroup
	producer := func(kind Kind, prefix string) {
		defer wg.Done()
		for i := 0; i < perProducer; i++ {
			err := q.Push(Task{
				Path:       prefix + "/" + string(rune('a'+i%26)),
				Kind:       kind,
				EnqueuedAt: time.Now(),
			})
			require.NoError(t, err)
		}
	}
	wg.Add(2)
	go producer(KindAdd, "scan")
	go producer(KindModify, "watch")

	// When: four workers drain concurrently
	var mu sync.Mutex
	popped := 0
	var workers sync.WaitGroup
	for w := 0; w < 4; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				if _, ok := q.Pop(100 * time.Millisecond); !ok {
					return
				}
				mu.Lock()
				popped++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	workers.Wait()

	// Then: every pushed task was popped exactly once
	assert.Equal(t, 2*perProducer, popped)
}

package logging

import (
	"sync"
	"time"
)

// DefaultQueueSize is the buffer size used when NewQueue is given a size < 1
const DefaultQueueSize = 256

// Queue decouples producers from a single consumer. Producers call Log from
// any goroutine; Run delivers entries, in arrival order, on the goroutine that
// calls it.
type Queue struct {
	mu     sync.RWMutex
	ch     chan Entry
	closed bool
	now    func() time.Time
}

// NewQueue creates a queue buffering up to size entries
func NewQueue(size int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}

	return &Queue{
		ch:  make(chan Entry, size),
		now: time.Now,
	}
}

// Log enqueues msg. Messages logged after Close are dropped.
func (q *Queue) Log(msg string) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return
	}

	q.ch <- Entry{Time: q.now(), Message: msg}
}

// Run hands every entry to consume until the queue is closed and drained
func (q *Queue) Run(consume func(Entry)) {
	for e := range q.ch {
		consume(e)
	}
}

// Close stops accepting entries. Entries already queued are still delivered
// by Run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.ch)
}

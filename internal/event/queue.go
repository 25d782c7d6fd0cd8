package event

import "sync/atomic"

// DefaultCapacity is the default queue depth.
const DefaultCapacity = 10

// Poster accepts events without blocking.
type Poster interface {
	// Post enqueues m and reports whether it was accepted.
	Post(m Measurement) bool
}

// Queue is a bounded multi-producer, single-consumer event queue.
type Queue struct {
	ch        chan Measurement
	dropped   atomic.Uint64
	highWater atomic.Int64
	onDrop    atomic.Pointer[DropFunc]
}

// DropFunc observes a rejected post; dropped is the running drop total.
type DropFunc func(m Measurement, dropped uint64)

// NewQueue returns a queue holding at most capacity events.
// A capacity below 1 is raised to 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Measurement, capacity)}
}

// Post enqueues m. When the queue is full m is dropped, the drop is
// counted, and Post returns false.
func (q *Queue) Post(m Measurement) bool {
	select {
	case q.ch <- m:
		q.observeDepth(int64(len(q.ch)))
		return true
	default:
		n := q.dropped.Add(1)
		if fn := q.onDrop.Load(); fn != nil {
			(*fn)(m, n)
		}
		return false
	}
}

// SetDropFunc installs fn to observe every rejected post, whichever
// producer made it. A nil fn removes the observer.
func (q *Queue) SetDropFunc(fn DropFunc) {
	if fn == nil {
		q.onDrop.Store(nil)
		return
	}
	q.onDrop.Store(&fn)
}

// observeDepth raises the high-water mark to depth if it is higher.
func (q *Queue) observeDepth(depth int64) {
	for {
		cur := q.highWater.Load()
		if depth <= cur || q.highWater.CompareAndSwap(cur, depth) {
			return
		}
	}
}

// C returns the receive side for the consumer.
func (q *Queue) C() <-chan Measurement {
	return q.ch
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Dropped returns how many posts were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// HighWater returns the deepest queue depth observed after a post.
func (q *Queue) HighWater() int {
	return int(q.highWater.Load())
}

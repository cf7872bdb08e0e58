package scheduler

import (
	"sync"

	"go.trai.ch/seer/internal/core/domain"
)

// ResolveRequest asks for a target name to be resolved into a rule.
type ResolveRequest struct {
	Target string
	// Reply, if set, receives the resolution. A nil rule means the target
	// is not buildable.
	Reply func(rule *domain.Rule, err error)
}

// resolveQueue is an unbounded FIFO of resolve requests. A buffered signal
// channel coalesces wakeups for the single consumer.
type resolveQueue struct {
	mu     sync.Mutex
	items  []ResolveRequest
	closed bool
	signal chan struct{}
}

func newResolveQueue() *resolveQueue {
	return &resolveQueue{
		items:  make([]ResolveRequest, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends req. It returns false once the queue is closed.
func (q *resolveQueue) Enqueue(req ResolveRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, req)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest request without blocking.
func (q *resolveQueue) TryDequeue() (ResolveRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return ResolveRequest{}, false
	}

	req := q.items[0]
	q.items[0] = ResolveRequest{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return req, true
}

// Wait returns a channel that receives when requests may be available.
func (q *resolveQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued requests.
func (q *resolveQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further requests and wakes the consumer.
func (q *resolveQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

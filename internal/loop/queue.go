package loop

import "sync"

// Queue is a coordination context drained by its owner. Worker goroutines
// post into it; the owning goroutine applies results by calling Drain.
// The bubbletea front end and tests use it this way.
type Queue struct {
	mu    sync.Mutex
	items []func()
}

// Post queues fn. Safe from any goroutine.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()
}

// Drain runs queued functions in order until the queue is empty, including
// functions posted while draining. Returns the number run.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return n
		}
		fn := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		fn()
		n++
	}
}

// Len returns the number of queued functions
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

package worker

import "sync"

// Deferred is an executor that only queues work. Tests run the queued
// functions explicitly, which makes completion order deterministic.
type Deferred struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
}

// Go queues fn
func (d *Deferred) Go(fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrPoolClosed
	}
	d.queue = append(d.queue, fn)
	return nil
}

// RunNext runs the oldest queued function. Returns false if none is queued.
func (d *Deferred) RunNext() bool {
	return d.run(func(n int) int { return 0 })
}

// RunLast runs the newest queued function, for out-of-order completion
func (d *Deferred) RunLast() bool {
	return d.run(func(n int) int { return n - 1 })
}

// RunAll runs queued functions until the queue is empty, including any
// queued while running. Returns the number run.
func (d *Deferred) RunAll() int {
	n := 0
	for d.RunNext() {
		n++
	}
	return n
}

// Pending returns the number of queued functions
func (d *Deferred) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close rejects further submissions and drops queued work
func (d *Deferred) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
}

func (d *Deferred) run(pick func(n int) int) bool {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return false
	}
	i := pick(len(d.queue))
	fn := d.queue[i]
	d.queue = append(d.queue[:i], d.queue[i+1:]...)
	d.mu.Unlock()

	fn()
	return true
}

// Package loop provides single-goroutine coordination contexts.
// Everything that mutates session, row or projection state is posted here.
package loop

import (
	"log/slog"
	"sync"
)

// Loop runs posted functions one at a time on a dedicated goroutine.
// Posting never blocks, so functions running on the loop may post more work.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	stopped bool
	logger  *slog.Logger
}

// New starts a loop. buffer is the initial capacity of the pending queue.
func New(buffer int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 0 {
		buffer = 0
	}
	l := &Loop{
		pending: make([]func(), 0, buffer),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go l.run()
	return l
}

// Post queues fn to run on the loop. Posts after Stop are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Sync runs fn on the loop and waits for it. Returns false if the loop
// stopped before fn ran. Must not be called from the loop itself.
func (l *Loop) Sync(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// Stop terminates the loop after the function currently running returns.
// Queued functions that have not started are dropped.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.stopped = true
	l.pending = nil
	l.mu.Unlock()

	close(l.quit)
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.pending
			l.pending = nil
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-l.quit:
					return
				default:
				}
				l.exec(fn)
			}
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop function panicked", "panic", r)
		}
	}()
	fn()
}

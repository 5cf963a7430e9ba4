package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/modbrowse/internal/loop"
)

// Inbox makes the bubbletea update loop the coordination context. Workers
// post result closures; a waiting command wakes Update, which drains them.
type Inbox struct {
	queue loop.Queue
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn for the update loop. Safe from any goroutine.
func (b *Inbox) Post(fn func()) {
	b.queue.Post(fn)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Drain runs everything queued. Call only from Update.
func (b *Inbox) Drain() int {
	return b.queue.Drain()
}

// Len returns the number of queued closures
func (b *Inbox) Len() int {
	return b.queue.Len()
}

// Close stops the waiting command
func (b *Inbox) Close() {
	b.once.Do(func() { close(b.done) })
}

// WaitCmd blocks until something is posted. Update re-issues it after each
// InboxMsg so there is always exactly one waiter.
func (b *Inbox) WaitCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.wake:
			return InboxMsg{}
		case <-b.done:
			return nil
		}
	}
}

// Package progress tracks background tasks (installs) so the UI can
// disable install affordances while any are running.
package progress

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mmcdole/modbrowse/internal/slot"
)

// Task describes one running background task
type Task struct {
	ID   string
	Name string
}

// Counter counts running tasks. Begin and the returned end function are
// safe from any goroutine; subscribers are notified through the poster.
type Counter struct {
	mu      sync.Mutex
	running map[string]string
	order   []string
	subs    map[int]func(count int)
	nextSub int
	post    slot.Poster
	logger  *slog.Logger
}

// NewCounter creates a counter delivering change notifications through post
func NewCounter(post slot.Poster, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{
		running: make(map[string]string),
		subs:    make(map[int]func(int)),
		post:    post,
		logger:  logger,
	}
}

// Begin registers a running task and returns the function that ends it.
// Calling the end function more than once is harmless.
func (c *Counter) Begin(name string) (id string, end func()) {
	id = uuid.NewString()

	c.mu.Lock()
	c.running[id] = name
	c.order = append(c.order, id)
	count := len(c.running)
	c.mu.Unlock()

	c.logger.Debug("task started", "task_id", id, "name", name, "running", count)
	c.publish(count)

	var once sync.Once
	return id, func() {
		once.Do(func() { c.finish(id) })
	}
}

func (c *Counter) finish(id string) {
	c.mu.Lock()
	name, ok := c.running[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.running, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	count := len(c.running)
	c.mu.Unlock()

	c.logger.Debug("task finished", "task_id", id, "name", name, "running", count)
	c.publish(count)
}

// Count returns the number of running tasks
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running)
}

// TasksRunning implements domain.TaskState
func (c *Counter) TasksRunning() bool {
	return c.Count() > 0
}

// Running returns the running tasks in start order
func (c *Counter) Running() []Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := make([]Task, 0, len(c.order))
	for _, id := range c.order {
		tasks = append(tasks, Task{ID: id, Name: c.running[id]})
	}
	return tasks
}

// Subscribe registers fn for count changes and returns the unsubscribe
func (c *Counter) Subscribe(fn func(count int)) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Counter) publish(count int) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(int), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	if len(fns) == 0 || c.post == nil {
		return
	}
	c.post.Post(func() {
		for _, fn := range fns {
			fn(count)
		}
	})
}

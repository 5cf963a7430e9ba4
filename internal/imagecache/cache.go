// Package imagecache fetches item icons with request deduplication,
// per-listener cancellation and a bounded in-memory LRU.
package imagecache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/slot"
)

// DefaultCapacity is the number of icons kept in memory when unconfigured
const DefaultCapacity = 64

// Image is a fetched icon. Data holds the encoded bytes as served.
type Image struct {
	Key  string
	Data []byte
}

// Receiver gets the result of a request. A nil image means no icon.
type Receiver func(img *Image)

// Handle identifies one request so it can be cancelled
type Handle struct {
	key string
	id  uint64
}

// Key returns the cache key the request was made for
func (h Handle) Key() string {
	return h.key
}

// Config holds cache options
type Config struct {
	// Capacity bounds the in-memory store. Inserting beyond it evicts the
	// least recently used icon.
	Capacity int
}

type listener struct {
	id   uint64
	recv Receiver
}

type fetch struct {
	slot      *slot.Slot
	listeners []listener
}

// Cache deduplicates concurrent icon fetches by key. Receivers are always
// invoked on the coordination context: synchronously from Request on a hit,
// otherwise through the poster.
type Cache struct {
	mu        sync.Mutex
	images    *lru.Cache[string, *Image]
	inflight  map[string]*fetch
	src       domain.IconSource
	exec      slot.Executor
	post      slot.Poster
	issuer    *slot.Issuer
	parent    context.Context
	nextID    uint64
	evictions int
	closed    bool
	logger    *slog.Logger
}

// New creates a cache fetching through src on exec and delivering through post
func New(cfg Config, src domain.IconSource, exec slot.Executor, post slot.Poster, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	c := &Cache{
		inflight: make(map[string]*fetch),
		src:      src,
		exec:     exec,
		post:     post,
		issuer:   slot.NewIssuer(logger),
		parent:   context.Background(),
		logger:   logger,
	}
	if p, ok := exec.(interface{ Context() context.Context }); ok {
		c.parent = p.Context()
	}

	images, err := lru.NewWithEvict(capacity, func(key string, _ *Image) {
		c.evictions++
		c.logger.Debug("evicted icon", "key", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create icon cache: %w", err)
	}
	c.images = images

	return c, nil
}

// Request asks for the icon stored under key, fetching it from url when it
// is not cached. An empty url delivers nil immediately.
func (c *Cache) Request(key, url string, recv Receiver) Handle {
	c.mu.Lock()
	c.nextID++
	h := Handle{key: key, id: c.nextID}

	if c.closed || url == "" {
		c.mu.Unlock()
		recv(nil)
		return h
	}

	if img, ok := c.images.Get(key); ok {
		c.mu.Unlock()
		recv(img)
		return h
	}

	if f, ok := c.inflight[key]; ok {
		f.listeners = append(f.listeners, listener{id: h.id, recv: recv})
		c.mu.Unlock()
		return h
	}

	s := c.issuer.New(c.parent)
	c.inflight[key] = &fetch{
		slot:      s,
		listeners: []listener{{id: h.id, recv: recv}},
	}
	c.mu.Unlock()

	slot.Spawn(s, c.exec, c.post, func(ctx context.Context) ([]byte, error) {
		return c.src.FetchIcon(ctx, key, url)
	}, func(data []byte, err error) {
		c.finish(key, s, data, err)
	})

	return h
}

// Cancel detaches the request. The fetch itself is revoked once no
// listener remains. Cancelling a delivered or unknown handle is a no-op.
func (c *Cache) Cancel(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.inflight[h.key]
	if !ok {
		return
	}
	for i, l := range f.listeners {
		if l.id == h.id {
			f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
			break
		}
	}
	if len(f.listeners) == 0 {
		f.slot.Revoke()
		delete(c.inflight, h.key)
	}
}

func (c *Cache) finish(key string, s *slot.Slot, data []byte, err error) {
	c.mu.Lock()
	f, ok := c.inflight[key]
	if !ok || f.slot != s {
		c.mu.Unlock()
		return
	}
	delete(c.inflight, key)
	s.Complete()

	var img *Image
	switch {
	case err != nil:
		c.logger.Warn("failed to fetch icon", "error", err, "key", key)
	case len(data) == 0:
		c.logger.Debug("icon absent", "key", key)
	default:
		img = &Image{Key: key, Data: data}
		c.images.Add(key, img)
	}
	listeners := f.listeners
	c.mu.Unlock()

	for _, l := range listeners {
		l.recv(img)
	}
}

// Len returns the number of icons held in memory
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.images.Len()
}

// Contains reports whether key is cached, without touching recency
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.images.Contains(key)
}

// InFlight returns the number of distinct keys being fetched
func (c *Cache) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Evictions returns how many icons the LRU has evicted
func (c *Cache) Evictions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// Purge drops every cached icon. In-flight fetches are unaffected.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images.Purge()
}

// Close revokes every in-flight fetch and empties the cache. Listeners of
// revoked fetches receive nothing. Requests after Close deliver nil.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for key, f := range c.inflight {
		f.slot.Revoke()
		delete(c.inflight, key)
	}
	c.images.Purge()
}

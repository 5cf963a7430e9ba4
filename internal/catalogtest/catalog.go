// Package catalogtest provides scripted in-memory collaborators for tests
package catalogtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmcdole/modbrowse/internal/domain"
)

// SearchCall records one Search invocation
type SearchCall struct {
	Criteria domain.SearchCriteria
	First    bool // prev was nil
	PrevLen  int  // accumulated items handed in as the cursor
	Fetched  int  // cursor offset handed in
}

type response struct {
	page *domain.PageResult
	err  error
}

// Catalog implements domain.Catalog from scripted responses.
// Search responses are consumed in order; an exhausted script returns an
// empty page.
type Catalog struct {
	mu          sync.Mutex
	responses   []response
	searchCalls []SearchCall
	details     map[string]*domain.Detail
	detailErrs  map[string]error
	detailCalls []string
	icons       map[string][]byte
	iconErrs    map[string]error
	iconCalls   map[string]int
}

// NewCatalog creates an empty scripted catalog
func NewCatalog() *Catalog {
	return &Catalog{
		details:    make(map[string]*domain.Detail),
		detailErrs: make(map[string]error),
		icons:      make(map[string][]byte),
		iconErrs:   make(map[string]error),
		iconCalls:  make(map[string]int),
	}
}

// QueuePage scripts the next Search response
func (c *Catalog) QueuePage(items []domain.Item, endOfData bool) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, response{page: &domain.PageResult{
		Items:     items,
		TotalHits: len(items),
		EndOfData: endOfData,
	}})
	return c
}

// QueueNil scripts a nil page with no error
func (c *Catalog) QueueNil() *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, response{})
	return c
}

// QueueError scripts the next Search call to fail
func (c *Catalog) QueueError(err error) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, response{err: err})
	return c
}

// SetDetail scripts the detail returned for an item key
func (c *Catalog) SetDetail(key string, d *domain.Detail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[key] = d
	delete(c.detailErrs, key)
}

// SetDetailError scripts GetDetails to fail for an item key
func (c *Catalog) SetDetailError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detailErrs[key] = err
}

// SetIcon scripts the bytes served for an icon key
func (c *Catalog) SetIcon(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.icons[key] = data
	delete(c.iconErrs, key)
}

// SetIconError scripts FetchIcon to fail for a key
func (c *Catalog) SetIconError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iconErrs[key] = err
}

// Search implements domain.SearchRepository
func (c *Catalog) Search(ctx context.Context, criteria domain.SearchCriteria, prev *domain.SearchResult) (*domain.PageResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := SearchCall{Criteria: criteria, First: prev == nil}
	if prev != nil {
		call.PrevLen = len(prev.Items)
		call.Fetched = prev.Fetched
	}
	c.searchCalls = append(c.searchCalls, call)

	if len(c.responses) == 0 {
		return &domain.PageResult{}, nil
	}
	r := c.responses[0]
	c.responses = c.responses[1:]
	return r.page, r.err
}

// GetDetails implements domain.DetailRepository
func (c *Catalog) GetDetails(ctx context.Context, item domain.Item) (*domain.Detail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.Key()
	c.detailCalls = append(c.detailCalls, key)
	if err, ok := c.detailErrs[key]; ok {
		return nil, err
	}
	if d, ok := c.details[key]; ok {
		return d, nil
	}
	return &domain.Detail{Item: item}, nil
}

// FetchIcon implements domain.IconSource
func (c *Catalog) FetchIcon(ctx context.Context, key, url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.iconCalls[key]++
	if err, ok := c.iconErrs[key]; ok {
		return nil, err
	}
	return c.icons[key], nil
}

// SearchCalls returns the recorded Search invocations
func (c *Catalog) SearchCalls() []SearchCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SearchCall(nil), c.searchCalls...)
}

// DetailCalls returns the item keys GetDetails was called with
func (c *Catalog) DetailCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.detailCalls...)
}

// IconCalls returns how many times key was fetched
func (c *Catalog) IconCalls(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iconCalls[key]
}

// Items builds n items with ids prefix-0 .. prefix-(n-1)
func Items(prefix string, n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		id := fmt.Sprintf("%s-%d", prefix, i)
		items[i] = domain.Item{
			ID:      id,
			Slug:    id,
			Title:   fmt.Sprintf("%s %d", prefix, i),
			IconURL: "https://cdn.example/" + id + ".png",
			Source:  domain.SourceModrinth,
		}
	}
	return items
}

// Item builds a single item with an icon
func Item(id string) domain.Item {
	return domain.Item{
		ID:      id,
		Slug:    id,
		Title:   id,
		IconURL: "https://cdn.example/" + id + ".png",
		Source:  domain.SourceModrinth,
	}
}

package search

import (
	"strings"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Entry is one projected row: an item, or the trailing loading sentinel
type Entry struct {
	Item     domain.Item
	Sentinel bool
}

// Projection is the read side handed to the rendering layer. Count includes
// the sentinel row while more data may exist.
type Projection struct {
	session *Session
}

// NewProjection exposes s to the rendering layer
func NewProjection(s *Session) *Projection {
	return &Projection{session: s}
}

// Count returns the number of rows to render
func (p *Projection) Count() int {
	if !p.session.Started() {
		return 0
	}
	n := p.session.Len()
	if !p.session.EndOfData() {
		n++
	}
	return n
}

// ItemAt returns the row at index. ok is false out of range.
func (p *Projection) ItemAt(index int) (Entry, bool) {
	if index < 0 || index >= p.Count() {
		return Entry{}, false
	}
	if item, ok := p.session.ItemAt(index); ok {
		return Entry{Item: item}, true
	}
	return Entry{Sentinel: true}, true
}

// Touch is called when the rendering layer shows the row at index.
// Showing the sentinel loads the next page. After a transport failure the
// sentinel stays put until the owner retries explicitly.
func (p *Projection) Touch(index int) (Entry, bool) {
	e, ok := p.ItemAt(index)
	if ok && e.Sentinel && p.session.LastError() != domain.ErrorTransport {
		p.session.LoadMore()
	}
	return e, ok
}

// Subscribe registers l for change notifications
func (p *Projection) Subscribe(l Listener) func() {
	return p.session.Subscribe(l)
}

// Session returns the session behind the projection
func (p *Projection) Session() *Session {
	return p.session
}

// titleSource implements fuzzy.Source over loaded titles
type titleSource []string

func (t titleSource) String(i int) string { return t[i] }
func (t titleSource) Len() int            { return len(t) }

// Find returns the index of the first loaded item after from whose title
// fuzzily matches query, wrapping around to the top.
func (p *Projection) Find(query string, from int) (int, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, false
	}

	items := p.session.items
	titles := make(titleSource, len(items))
	for i, it := range items {
		titles[i] = strings.ToLower(it.Title)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), titles)
	if len(matches) == 0 {
		return 0, false
	}

	best := -1
	wrapped := -1
	for _, m := range matches {
		if m.Index > from && (best == -1 || m.Index < best) {
			best = m.Index
		}
		if wrapped == -1 || m.Index < wrapped {
			wrapped = m.Index
		}
	}
	if best >= 0 {
		return best, true
	}
	return wrapped, true
}

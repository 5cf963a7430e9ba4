// Package search owns the paginated result list: the session that loads
// pages one at a time and the projection the rendering layer reads.
package search

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/slot"
)

// Deps are the collaborators a Session needs
type Deps struct {
	Repo     domain.SearchRepository
	Exec     slot.Executor
	Post     slot.Poster
	Issuer   *slot.Issuer // optional, shared token space
	Observer Observer     // optional
	Logger   *slog.Logger
}

// Session holds the accumulated results for the active criteria and the
// single in-flight page load.
//
// All methods must be called on the coordination context. Page completions
// are posted there too.
type Session struct {
	repo     domain.SearchRepository
	exec     slot.Executor
	post     slot.Poster
	observer Observer
	logger   *slog.Logger
	parent   context.Context

	criteria  domain.SearchCriteria
	started   bool
	closed    bool
	items     []domain.Item
	seen      map[string]struct{}
	fetched   int
	totalHits int
	pages     int
	endOfData bool
	lastErr   domain.ErrorKind
	cause     error
	page      *slot.Holder

	subs listeners
}

// NewSession creates an idle session. Nothing loads until Start.
func NewSession(d Deps) *Session {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	issuer := d.Issuer
	if issuer == nil {
		issuer = slot.NewIssuer(logger)
	}
	observer := d.Observer
	if observer == nil {
		observer = ObserverFuncs{}
	}
	s := &Session{
		repo:     d.Repo,
		exec:     d.Exec,
		post:     d.Post,
		observer: observer,
		logger:   logger,
		parent:   context.Background(),
		seen:     make(map[string]struct{}),
		page:     slot.NewHolder(issuer),
	}
	if p, ok := d.Exec.(interface{ Context() context.Context }); ok {
		s.parent = p.Context()
	}
	return s
}

// Start replaces the criteria, discards everything accumulated and loads
// the first page. An in-flight load for the old criteria is revoked.
// Listeners see the reset with the first load already in flight.
func (s *Session) Start(criteria domain.SearchCriteria) {
	if s.closed {
		return
	}
	s.page.Revoke()

	s.criteria = criteria
	s.started = true
	s.items = nil
	s.seen = make(map[string]struct{})
	s.fetched = 0
	s.totalHits = 0
	s.pages = 0
	s.endOfData = false
	s.lastErr = domain.ErrorNone
	s.cause = nil

	s.logger.Debug("starting search", "query", criteria.Query, "modpacks", criteria.Modpacks, "mc_version", criteria.MCVersion)
	s.load()
	s.notify(func(l Listener) { l.OnReset() })
}

// LoadMore requests the next page. It is a no-op (returning false) while a
// load is in flight, after the end of data, or before Start.
func (s *Session) LoadMore() bool {
	if s.closed || !s.started || s.page.Active() || s.endOfData {
		return false
	}
	s.load()
	return true
}

// Retry re-triggers the load that last failed. A failed first page is
// retried from scratch; a later page continues from the cursor.
func (s *Session) Retry() bool {
	if s.lastErr != domain.ErrorTransport {
		return false
	}
	if s.pages == 0 {
		s.Start(s.criteria)
		return true
	}
	return s.LoadMore()
}

func (s *Session) load() {
	first := s.pages == 0

	var prev *domain.SearchResult
	if !first {
		prev = &domain.SearchResult{
			Items:     slices.Clone(s.items),
			Fetched:   s.fetched,
			TotalHits: s.totalHits,
		}
	}

	sl := s.page.Replace(s.parent)
	tok := sl.Token()
	criteria := s.criteria

	slot.Spawn(sl, s.exec, s.post, func(ctx context.Context) (*domain.PageResult, error) {
		return s.repo.Search(ctx, criteria, prev)
	}, func(page *domain.PageResult, err error) {
		s.complete(tok, first, page, err)
	})
}

func (s *Session) complete(tok slot.Token, first bool, page *domain.PageResult, err error) {
	if !s.page.Release(tok) {
		s.logger.Debug("discarding stale page", "token", uint64(tok))
		return
	}

	if err != nil {
		s.lastErr = domain.KindOf(err)
		s.cause = err
		s.logger.Error("failed to fetch page", "error", err, "query", s.criteria.Query, "offset", s.fetched)
		s.observer.OnSearchError(s.lastErr, err)
		return
	}

	if page == nil || len(page.Items) == 0 {
		s.endOfData = true
		if first {
			s.lastErr = domain.ErrorNoResults
			s.cause = nil
			s.logger.Info("search returned no results", "query", s.criteria.Query)
			s.notify(func(l Listener) { l.OnReset() })
			s.observer.OnSearchError(domain.ErrorNoResults, nil)
			return
		}
		s.lastErr = domain.ErrorNone
		s.cause = nil
		end := len(s.items)
		s.notify(func(l Listener) { l.OnRemoved(end, 1) })
		s.observer.OnSearchFinished()
		return
	}

	start := len(s.items)
	for _, it := range page.Items {
		key := it.Key()
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.items = append(s.items, it)
	}
	added := len(s.items) - start
	if skipped := len(page.Items) - added; skipped > 0 {
		s.logger.Debug("skipped duplicate items", "count", skipped)
	}

	s.fetched += len(page.Items)
	s.totalHits = page.TotalHits
	s.pages++
	s.lastErr = domain.ErrorNone
	s.cause = nil

	if first {
		s.endOfData = page.EndOfData
		s.notify(func(l Listener) { l.OnReset() })
	} else {
		if added > 0 {
			s.notify(func(l Listener) { l.OnInserted(start, added) })
		}
		if page.EndOfData {
			s.endOfData = true
			end := len(s.items)
			s.notify(func(l Listener) { l.OnRemoved(end, 1) })
		}
	}

	s.logger.Debug("page loaded", "query", s.criteria.Query, "added", added, "total", len(s.items), "end_of_data", s.endOfData)
	s.observer.OnSearchFinished()
}

// NotifyChanged tells listeners the entry at index needs re-rendering
func (s *Session) NotifyChanged(index int) {
	if index < 0 || index >= len(s.items) {
		return
	}
	s.notify(func(l Listener) { l.OnChanged(index) })
}

// Subscribe registers l and returns a function that removes it
func (s *Session) Subscribe(l Listener) func() {
	return s.subs.add(l)
}

func (s *Session) notify(fn func(Listener)) {
	s.subs.each(fn)
}

// Close revokes the in-flight load. The session ignores later calls.
func (s *Session) Close() {
	s.page.Revoke()
	s.closed = true
}

// Items returns a copy of the accumulated items
func (s *Session) Items() []domain.Item {
	return slices.Clone(s.items)
}

// ItemAt returns the accumulated item at index
func (s *Session) ItemAt(index int) (domain.Item, bool) {
	if index < 0 || index >= len(s.items) {
		return domain.Item{}, false
	}
	return s.items[index], true
}

// Len returns the number of accumulated items
func (s *Session) Len() int { return len(s.items) }

// EndOfData reports whether no further page will be loaded
func (s *Session) EndOfData() bool { return s.endOfData }

// Loading reports whether a page load is in flight
func (s *Session) Loading() bool { return s.page.Active() }

// LastError returns the kind of the last page-load failure, cleared by the
// next successful page
func (s *Session) LastError() domain.ErrorKind { return s.lastErr }

// Err returns the cause of the last transport failure
func (s *Session) Err() error { return s.cause }

// Criteria returns the active criteria
func (s *Session) Criteria() domain.SearchCriteria { return s.criteria }

// Started reports whether Start has been called
func (s *Session) Started() bool { return s.started }

// TotalHits returns the backend's reported total for the criteria
func (s *Session) TotalHits() int { return s.totalHits }

// Pages returns the number of pages successfully loaded
func (s *Session) Pages() int { return s.pages }

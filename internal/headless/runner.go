// Package headless drives a search session without a terminal UI, on a
// loop goroutine as its coordination context. The modquery command uses it
// for scripted searches.
package headless

import (
	"context"
	"log/slog"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/loop"
	"github.com/mmcdole/modbrowse/internal/row"
	"github.com/mmcdole/modbrowse/internal/search"
	"github.com/mmcdole/modbrowse/internal/slot"
)

// Options control a run
type Options struct {
	Criteria domain.SearchCriteria
	Pages    int // pages to load, at least 1
	Details  int // leading items to expand
}

// DetailReport is the outcome of expanding one item
type DetailReport struct {
	Item     domain.Item
	Versions []string
	Err      error
}

// Report is what a run collected
type Report struct {
	Items     []domain.Item
	TotalHits int
	Pages     int
	EndOfData bool
	Details   []DetailReport
}

// Catalog is the part of a backend a run needs
type Catalog interface {
	domain.SearchRepository
	domain.DetailRepository
}

// Run loads pages until opts.Pages are loaded or the data ends, then
// expands the first opts.Details items. A failed page ends the run with
// the items loaded so far and the error.
func Run(ctx context.Context, cat Catalog, exec slot.Executor, opts Options, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Pages <= 0 {
		opts.Pages = 1
	}

	l := loop.New(16, logger)
	defer l.Stop()

	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	var session *search.Session
	session = search.NewSession(search.Deps{
		Repo: cat,
		Exec: exec,
		Post: l,
		Observer: search.ObserverFuncs{
			Finished: func() {
				if session.EndOfData() || session.Pages() >= opts.Pages {
					finish(nil)
					return
				}
				session.LoadMore()
			},
			Failed: func(kind domain.ErrorKind, err error) {
				if kind == domain.ErrorNoResults {
					finish(nil)
					return
				}
				finish(err)
			},
		},
		Logger: logger,
	})
	l.Post(func() { session.Start(opts.Criteria) })

	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		l.Sync(session.Close)
		return nil, ctx.Err()
	}

	rep := &Report{}
	l.Sync(func() {
		rep.Items = session.Items()
		rep.TotalHits = session.TotalHits()
		rep.Pages = session.Pages()
		rep.EndOfData = session.EndOfData()
		session.Close()
	})
	if runErr != nil {
		return rep, runErr
	}

	n := min(opts.Details, len(rep.Items))
	if n <= 0 {
		return rep, nil
	}
	details, err := expand(ctx, l, cat, exec, rep.Items[:n], logger)
	rep.Details = details
	return rep, err
}

// expand binds one row controller per item and expands them all, waiting
// until every detail fetch settles
func expand(ctx context.Context, l *loop.Loop, cat domain.DetailRepository, exec slot.Executor, items []domain.Item, logger *slog.Logger) ([]DetailReport, error) {
	settled := make(chan struct{})
	remaining := len(items)
	done := make(map[int]bool, len(items))
	rows := make([]*row.Controller, len(items))

	l.Sync(func() {
		for i, item := range items {
			rows[i] = row.New(i, row.Deps{
				Details: cat,
				Exec:    exec,
				Post:    l,
				Logger:  logger,
				OnChange: func(c *row.Controller) {
					st := c.DetailState()
					if done[c.ID()] || (st != row.DetailLoaded && st != row.DetailFailed) {
						return
					}
					done[c.ID()] = true
					remaining--
					if remaining == 0 {
						close(settled)
					}
				},
			})
			rows[i].Bind(item)
			rows[i].Expand()
		}
	})

	select {
	case <-settled:
	case <-ctx.Done():
		l.Sync(func() {
			for _, c := range rows {
				c.Unbind()
			}
		})
		return nil, ctx.Err()
	}

	out := make([]DetailReport, len(rows))
	l.Sync(func() {
		for i, c := range rows {
			out[i] = DetailReport{Item: c.Item(), Err: c.DetailErr()}
			if c.DetailState() == row.DetailLoaded {
				out[i].Versions = c.Detail().VersionNames()
			} else if out[i].Err == nil {
				out[i].Err = domain.ErrNotFound
			}
			c.Unbind()
		}
	})
	return out, nil
}

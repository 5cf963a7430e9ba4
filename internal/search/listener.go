package search

import "github.com/mmcdole/modbrowse/internal/domain"

// Listener receives list change notifications. Indexes are positions in
// the projection, so the sentinel row sits at index Len().
type Listener interface {
	OnReset()
	OnInserted(start, count int)
	OnRemoved(start, count int)
	OnChanged(index int)
}

// Observer is the session owner. It hears about page loads as a whole.
type Observer interface {
	OnSearchFinished()
	OnSearchError(kind domain.ErrorKind, err error)
}

// ListenerFuncs adapts optional functions to Listener. Nil fields are ignored.
type ListenerFuncs struct {
	Reset    func()
	Inserted func(start, count int)
	Removed  func(start, count int)
	Changed  func(index int)
}

func (f ListenerFuncs) OnReset() {
	if f.Reset != nil {
		f.Reset()
	}
}

func (f ListenerFuncs) OnInserted(start, count int) {
	if f.Inserted != nil {
		f.Inserted(start, count)
	}
}

func (f ListenerFuncs) OnRemoved(start, count int) {
	if f.Removed != nil {
		f.Removed(start, count)
	}
}

func (f ListenerFuncs) OnChanged(index int) {
	if f.Changed != nil {
		f.Changed(index)
	}
}

// ObserverFuncs adapts optional functions to Observer
type ObserverFuncs struct {
	Finished func()
	Failed   func(kind domain.ErrorKind, err error)
}

func (f ObserverFuncs) OnSearchFinished() {
	if f.Finished != nil {
		f.Finished()
	}
}

func (f ObserverFuncs) OnSearchError(kind domain.ErrorKind, err error) {
	if f.Failed != nil {
		f.Failed(kind, err)
	}
}

type subscription struct {
	id int
	l  Listener
}

// listeners is a small registry; Subscribe returns the matching unsubscribe
type listeners struct {
	next int
	subs []subscription
}

func (ls *listeners) add(l Listener) func() {
	ls.next++
	id := ls.next
	ls.subs = append(ls.subs, subscription{id: id, l: l})
	return func() {
		for i, s := range ls.subs {
			if s.id == id {
				ls.subs = append(ls.subs[:i], ls.subs[i+1:]...)
				return
			}
		}
	}
}

func (ls *listeners) each(fn func(Listener)) {
	// Copy so listeners may unsubscribe while being notified
	subs := append([]subscription(nil), ls.subs...)
	for _, s := range subs {
		fn(s.l)
	}
}

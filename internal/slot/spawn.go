package slot

import "context"

// Executor runs work off the coordination context
type Executor interface {
	Go(fn func()) error
}

// Poster marshals a function onto the coordination context
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a function to Poster
type PosterFunc func(fn func())

// Post calls f(fn)
func (f PosterFunc) Post(fn func()) {
	f(fn)
}

// Spawn runs work for s on exec and posts apply back through post.
// apply is skipped when s went stale in the meantime. If exec rejects the
// work, apply is posted with the rejection error so the owner can release
// its slot.
func Spawn[T any](s *Slot, exec Executor, post Poster, work func(ctx context.Context) (T, error), apply func(T, error)) {
	deliver := func(v T, err error) {
		post.Post(func() {
			if s.Stale() {
				s.logger.Debug("discarding stale result", "token", uint64(s.token), "error", err)
				return
			}
			apply(v, err)
		})
	}

	run := func() {
		v, err := work(s.Context())
		deliver(v, err)
	}

	if err := exec.Go(run); err != nil {
		var zero T
		deliver(zero, err)
	}
}

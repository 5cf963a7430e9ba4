// Package slot binds one in-flight unit of asynchronous work to the owner
// that requested it and detects when the result has gone stale.
//
// A Slot is single-assignment: it is created for one piece of work and is
// never reused. Revoking a slot marks it permanently stale and cancels its
// context so cooperative work can stop early. Correctness does not depend on
// the work observing cancellation: results are only applied on the
// coordination context after a staleness check.
package slot

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Token is a monotonic generation number identifying one slot
type Token uint64

// Slot is a cancellable handle for one unit of work
type Slot struct {
	token   Token
	revoked atomic.Bool
	done    atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// Token returns the slot's generation token
func (s *Slot) Token() Token {
	return s.token
}

// Context returns the context handed to the work. It is cancelled on Revoke.
func (s *Slot) Context() context.Context {
	return s.ctx
}

// Revoke marks the slot stale and signals cancellation to the work.
// Revoking twice, or after Complete, is a no-op.
func (s *Slot) Revoke() {
	if s.done.Load() {
		return
	}
	if s.revoked.CompareAndSwap(false, true) {
		s.cancel()
	}
}

// Stale reports whether the slot was revoked before completing
func (s *Slot) Stale() bool {
	return s.revoked.Load()
}

// Complete marks the result as applied and releases the context.
// Returns false if the slot was already stale or completed.
func (s *Slot) Complete() bool {
	if s.revoked.Load() {
		return false
	}
	if !s.done.CompareAndSwap(false, true) {
		return false
	}
	s.cancel()
	return true
}

// Done reports whether Complete has been called
func (s *Slot) Done() bool {
	return s.done.Load()
}

// Issuer hands out slots with monotonically increasing tokens.
// It is safe for concurrent use.
type Issuer struct {
	next   atomic.Uint64
	logger *slog.Logger
}

// NewIssuer creates an issuer. Slots it creates log stale discards to logger.
func NewIssuer(logger *slog.Logger) *Issuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Issuer{logger: logger}
}

// New creates a slot whose context derives from parent
func (i *Issuer) New(parent context.Context) *Slot {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	logger := i.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Slot{
		token:  Token(i.next.Add(1)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Last returns the most recently issued token (0 if none)
func (i *Issuer) Last() Token {
	return Token(i.next.Load())
}

package slot

import "context"

// Holder keeps at most one live slot for one (owner, work kind) pair.
// Replacing the slot revokes the previous one.
//
// Holder is not safe for concurrent use; it lives on the coordination context.
type Holder struct {
	issuer *Issuer
	cur    *Slot
}

// NewHolder creates an empty holder drawing tokens from issuer
func NewHolder(issuer *Issuer) *Holder {
	if issuer == nil {
		issuer = NewIssuer(nil)
	}
	return &Holder{issuer: issuer}
}

// Replace revokes the current slot (if any) and installs a fresh one
func (h *Holder) Replace(parent context.Context) *Slot {
	h.Revoke()
	h.cur = h.issuer.New(parent)
	return h.cur
}

// Owns reports whether tok identifies the live slot
func (h *Holder) Owns(tok Token) bool {
	return h.cur != nil && h.cur.token == tok && !h.cur.Stale()
}

// Release completes the live slot if tok identifies it. Returns false for a
// stale token, leaving the current slot untouched.
func (h *Holder) Release(tok Token) bool {
	if !h.Owns(tok) {
		return false
	}
	h.cur.Complete()
	h.cur = nil
	return true
}

// Revoke revokes and drops the live slot
func (h *Holder) Revoke() {
	if h.cur == nil {
		return
	}
	h.cur.Revoke()
	h.cur = nil
}

// Active reports whether a slot is in flight
func (h *Holder) Active() bool {
	return h.cur != nil
}

// Current returns the live slot, or nil
func (h *Holder) Current() *Slot {
	return h.cur
}

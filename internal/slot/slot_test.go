package slot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmcdole/modbrowse/internal/loop"
	"github.com/mmcdole/modbrowse/internal/slot"
	"github.com/mmcdole/modbrowse/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuerTokensAreMonotonic(t *testing.T) {
	iss := slot.NewIssuer(nil)

	var last slot.Token
	for i := 0; i < 10; i++ {
		s := iss.New(context.Background())
		assert.Greater(t, s.Token(), last)
		last = s.Token()
	}
	assert.Equal(t, last, iss.Last())
}

func TestRevokeCancelsContextAndIsIdempotent(t *testing.T) {
	s := slot.NewIssuer(nil).New(context.Background())
	require.False(t, s.Stale())
	require.NoError(t, s.Context().Err())

	s.Revoke()
	s.Revoke()

	assert.True(t, s.Stale())
	assert.ErrorIs(t, s.Context().Err(), context.Canceled)
	assert.False(t, s.Complete(), "revoked slot cannot complete")
}

func TestRevokeAfterCompleteIsNoop(t *testing.T) {
	s := slot.NewIssuer(nil).New(context.Background())

	require.True(t, s.Complete())
	s.Revoke()

	assert.False(t, s.Stale())
	assert.True(t, s.Done())
	assert.False(t, s.Complete(), "second complete reports false")
}

func TestHolderKeepsOneLiveSlot(t *testing.T) {
	h := slot.NewHolder(nil)
	assert.False(t, h.Active())

	first := h.Replace(context.Background())
	second := h.Replace(context.Background())

	assert.True(t, first.Stale(), "replace revokes the previous slot")
	assert.False(t, second.Stale())
	assert.False(t, h.Owns(first.Token()))
	assert.True(t, h.Owns(second.Token()))

	assert.False(t, h.Release(first.Token()), "stale token cannot release")
	assert.True(t, h.Active())

	assert.True(t, h.Release(second.Token()))
	assert.False(t, h.Active())
	assert.Nil(t, h.Current())
}

func TestHolderRevoke(t *testing.T) {
	h := slot.NewHolder(nil)
	s := h.Replace(context.Background())

	h.Revoke()

	assert.True(t, s.Stale())
	assert.False(t, h.Active())
	h.Revoke()
}

func TestSpawnAppliesOnCoordinationContext(t *testing.T) {
	var exec worker.Deferred
	var q loop.Queue
	h := slot.NewHolder(nil)

	s := h.Replace(context.Background())
	var got string
	slot.Spawn(s, &exec, &q, func(ctx context.Context) (string, error) {
		return "page", nil
	}, func(v string, err error) {
		require.NoError(t, err)
		got = v
		h.Release(s.Token())
	})

	require.Equal(t, 1, exec.Pending())
	exec.RunAll()
	assert.Empty(t, got, "result is not applied until the coordination context runs")

	q.Drain()
	assert.Equal(t, "page", got)
	assert.False(t, h.Active())
}

func TestSpawnDiscardsStaleResult(t *testing.T) {
	var exec worker.Deferred
	var q loop.Queue
	h := slot.NewHolder(nil)

	s := h.Replace(context.Background())
	applied := false
	var workCtx context.Context
	slot.Spawn(s, &exec, &q, func(ctx context.Context) (int, error) {
		workCtx = ctx
		return 1, nil
	}, func(int, error) {
		applied = true
	})

	exec.RunAll()
	h.Revoke()
	q.Drain()

	assert.False(t, applied)
	assert.ErrorIs(t, workCtx.Err(), context.Canceled)
}

func TestSpawnRevokedBeforeWorkRuns(t *testing.T) {
	var exec worker.Deferred
	var q loop.Queue
	s := slot.NewIssuer(nil).New(context.Background())

	var observed error
	applied := false
	slot.Spawn(s, &exec, &q, func(ctx context.Context) (int, error) {
		observed = ctx.Err()
		return 0, ctx.Err()
	}, func(int, error) {
		applied = true
	})

	s.Revoke()
	exec.RunAll()
	q.Drain()

	assert.ErrorIs(t, observed, context.Canceled)
	assert.False(t, applied)
}

func TestSpawnReportsRejectedWork(t *testing.T) {
	var exec worker.Deferred
	exec.Close()
	var q loop.Queue
	s := slot.NewIssuer(nil).New(context.Background())

	var gotErr error
	slot.Spawn(s, &exec, &q, func(ctx context.Context) (int, error) {
		t.Fatal("work must not run")
		return 0, nil
	}, func(_ int, err error) {
		gotErr = err
	})

	q.Drain()
	assert.True(t, errors.Is(gotErr, worker.ErrPoolClosed))
}

func TestPosterFunc(t *testing.T) {
	called := false
	var p slot.Poster = slot.PosterFunc(func(fn func()) { fn() })
	p.Post(func() { called = true })
	assert.True(t, called)
}

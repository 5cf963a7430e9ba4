package search_test

import (
	"testing"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectionBeforeStart(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 0, h.proj.Count())
	_, ok := h.proj.Touch(0)
	assert.False(t, ok)
	assert.Empty(t, h.cat.SearchCalls())
}

func TestTouchItemDoesNotLoad(t *testing.T) {
	h := newHarness(t)
	h.cat.QueuePage([]domain.Item{
		{ID: "1", Title: "Create", Source: domain.SourceModrinth},
	}, false)
	h.session.Start(domain.SearchCriteria{Query: "c"})
	h.settle()

	e, ok := h.proj.Touch(0)
	require.True(t, ok)
	assert.False(t, e.Sentinel)
	assert.Equal(t, "Create", e.Item.Title)
	assert.False(t, h.session.Loading())
}

func TestFindWrapsAround(t *testing.T) {
	h := newHarness(t)
	h.cat.QueuePage([]domain.Item{
		{ID: "1", Title: "Sodium", Source: domain.SourceModrinth},
		{ID: "2", Title: "Lithium", Source: domain.SourceModrinth},
		{ID: "3", Title: "Iris Shaders", Source: domain.SourceModrinth},
		{ID: "4", Title: "Sodium Extra", Source: domain.SourceModrinth},
	}, true)
	h.session.Start(domain.SearchCriteria{Query: "perf"})
	h.settle()

	idx, ok := h.proj.Find("sodium", -1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = h.proj.Find("sodium", 0)
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	idx, ok = h.proj.Find("sodium", 3)
	require.True(t, ok)
	assert.Equal(t, 0, idx, "wraps to the top")

	_, ok = h.proj.Find("zzzz", 0)
	assert.False(t, ok)
	_, ok = h.proj.Find("  ", 0)
	assert.False(t, ok)
}

func TestNotifyChanged(t *testing.T) {
	h := newHarness(t)
	h.cat.QueuePage([]domain.Item{{ID: "1", Title: "A"}}, true)
	h.session.Start(domain.SearchCriteria{Query: "a"})
	h.settle()

	h.session.NotifyChanged(0)
	h.session.NotifyChanged(5)

	assert.Equal(t, event{"changed", 0, 1}, h.events[len(h.events)-1])
}

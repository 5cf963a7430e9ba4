package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/modbrowse/internal/catalogtest"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/imagecache"
	"github.com/mmcdole/modbrowse/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRows = 5

type testApp struct {
	m     *Model
	cat   *catalogtest.Catalog
	exec  *worker.Deferred
	inbox *Inbox
}

func newTestApp(t *testing.T, criteria domain.SearchCriteria) *testApp {
	t.Helper()
	a := &testApp{
		cat:   catalogtest.NewCatalog(),
		exec:  &worker.Deferred{},
		inbox: NewInbox(),
	}
	icons, err := imagecache.New(imagecache.Config{Capacity: 16}, a.cat, a.exec, a.inbox, nil)
	require.NoError(t, err)

	a.m = NewModel(Services{
		Search:  a.cat,
		Details: a.cat,
		Icons:   icons,
		Exec:    a.exec,
		Inbox:   a.inbox,
	}, criteria)
	t.Cleanup(a.m.Close)
	return a
}

func (a *testApp) start() {
	a.m.Update(tea.WindowSizeMsg{Width: 100, Height: testRows + ChromeHeight})
	a.m.Init()
	a.settle()
}

func (a *testApp) settle() {
	for a.exec.RunAll() > 0 || a.inbox.Len() > 0 {
		a.m.Update(InboxMsg{})
	}
}

func (a *testApp) press(keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		a.m.Update(msg)
	}
}

func TestInitialPageFillsRows(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{Query: "tech"})
	a.cat.QueuePage(catalogtest.Items("a", 20), false)
	a.start()

	assert.Equal(t, 20, a.m.Session().Len())
	require.Len(t, a.m.visible, testRows)
	for i, c := range a.m.visible {
		require.NotNil(t, c)
		assert.Equal(t, catalogtest.Items("a", 20)[i].Key(), c.Item().Key())
	}
	assert.Len(t, a.cat.SearchCalls(), 1, "sentinel is off screen")
}

func TestScrollingToSentinelLoadsNextPage(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{Query: "tech"})
	a.cat.QueuePage(catalogtest.Items("a", 20), false)
	a.cat.QueuePage(catalogtest.Items("b", 3), true)
	a.start()

	a.press("G")
	assert.Equal(t, 20, a.m.cursor)
	assert.True(t, a.m.Session().Loading())

	a.settle()
	calls := a.cat.SearchCalls()
	require.Len(t, calls, 2)
	assert.False(t, calls[1].First)
	assert.Equal(t, 20, calls[1].Fetched)

	assert.Equal(t, 23, a.m.proj.Count(), "sentinel removed at end of data")
	assert.Equal(t, 20, a.m.cursor)
	for _, c := range a.m.visible {
		assert.NotNil(t, c)
	}
}

func TestRecyclingKeepsVisibleRows(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{})
	items := catalogtest.Items("a", 20)
	a.cat.QueuePage(items, false)
	a.cat.SetDetail(items[0].Key(), &domain.Detail{Item: items[0], Versions: []domain.Version{{Name: "1.0"}}})
	a.start()

	a.press("enter")
	first := a.m.current()
	require.NotNil(t, first)
	a.settle()
	assert.True(t, first.Expanded())

	a.press("j")
	assert.Same(t, first, a.m.visible[0], "still visible, same container")
	assert.True(t, first.Expanded())

	a.press("j", "j", "j", "j")
	assert.Equal(t, 1, a.m.offset)
	assert.NotEqual(t, items[0].Key(), first.Item().Key(), "container recycled for a new item")
	assert.False(t, first.Expanded())
	assert.Len(t, a.cat.DetailCalls(), 1)
}

func TestSubmitQueryRestartsSearch(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{})
	a.cat.QueuePage(catalogtest.Items("a", 3), true)
	a.cat.QueuePage(catalogtest.Items("t", 2), true)
	a.start()

	a.press("s")
	assert.Equal(t, StateQuery, a.m.State)
	a.press("t", "e", "c", "h", "enter")
	assert.Equal(t, StateBrowsing, a.m.State)
	a.settle()

	calls := a.cat.SearchCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "tech", calls[1].Criteria.Query)
	assert.True(t, calls[1].First)
	assert.Equal(t, 2, a.m.Session().Len())
}

func TestModpackToggle(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{Query: "x"})
	a.start()

	a.press("m")
	a.settle()
	calls := a.cat.SearchCalls()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].Criteria.Modpacks)
	assert.Equal(t, "x", calls[1].Criteria.Query)
}

func TestNoResultsView(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{Query: "zzz"})
	a.cat.QueuePage(nil, false)
	a.start()

	assert.Equal(t, 0, a.m.proj.Count())
	assert.Contains(t, a.m.View(), `No results for "zzz"`)
}

func TestFailedPageWaitsForRetry(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{})
	a.cat.QueuePage(catalogtest.Items("a", 2), false)
	a.cat.QueueError(errors.New("boom"))
	a.cat.QueuePage(catalogtest.Items("b", 1), true)
	a.start()

	// two items fit, so the sentinel is visible and the second page fails
	require.Len(t, a.cat.SearchCalls(), 2)
	assert.Equal(t, domain.ErrorTransport, a.m.Session().LastError())
	assert.Contains(t, a.m.View(), "r to retry")

	a.press("j", "j")
	a.settle()
	assert.Len(t, a.cat.SearchCalls(), 2, "showing the sentinel does not retry")

	a.press("r")
	a.settle()
	assert.Len(t, a.cat.SearchCalls(), 3)
	assert.Equal(t, 3, a.m.Session().Len())
	assert.Equal(t, domain.ErrorNone, a.m.Session().LastError())
}

func TestFindJumpsToLoadedMatch(t *testing.T) {
	a := newTestApp(t, domain.SearchCriteria{})
	items := []domain.Item{
		catalogtest.Item("sodium"),
		catalogtest.Item("lithium"),
		catalogtest.Item("iris"),
	}
	items[0].Title, items[1].Title, items[2].Title = "Sodium", "Lithium", "Iris"
	a.cat.QueuePage(items, true)
	a.start()

	a.press("/", "i", "r", "i", "s", "enter")
	assert.Equal(t, 2, a.m.cursor)
	assert.Equal(t, "Iris", a.m.current().Item().Title)
}

func TestInboxWaitCmd(t *testing.T) {
	b := NewInbox()
	ran := false
	b.Post(func() { ran = true })

	msg := b.WaitCmd()()
	assert.Equal(t, InboxMsg{}, msg)
	assert.Equal(t, 1, b.Drain())
	assert.True(t, ran)

	b.Close()
	assert.Nil(t, b.WaitCmd()())
}

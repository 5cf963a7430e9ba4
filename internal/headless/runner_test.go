package headless

import (
	"context"
	"errors"
	"testing"

	"github.com/mmcdole/modbrowse/internal/catalogtest"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T) *worker.Pool {
	t.Helper()
	p := worker.NewPool(worker.Config{Workers: 2}, nil)
	t.Cleanup(p.Stop)
	return p
}

func TestRunStopsAfterRequestedPages(t *testing.T) {
	cat := catalogtest.NewCatalog().
		QueuePage(catalogtest.Items("a", 3), false).
		QueuePage(catalogtest.Items("b", 3), false).
		QueuePage(catalogtest.Items("c", 3), false)

	rep, err := Run(context.Background(), cat, newPool(t), Options{Pages: 2}, nil)
	require.NoError(t, err)

	assert.Len(t, rep.Items, 6)
	assert.Equal(t, 2, rep.Pages)
	assert.False(t, rep.EndOfData)
	assert.Len(t, cat.SearchCalls(), 2)
}

func TestRunStopsAtEndOfData(t *testing.T) {
	cat := catalogtest.NewCatalog().
		QueuePage(catalogtest.Items("a", 3), true)

	rep, err := Run(context.Background(), cat, newPool(t), Options{Pages: 5}, nil)
	require.NoError(t, err)

	assert.Len(t, rep.Items, 3)
	assert.True(t, rep.EndOfData)
	assert.Len(t, cat.SearchCalls(), 1)
}

func TestRunNoResults(t *testing.T) {
	cat := catalogtest.NewCatalog().QueuePage(nil, false)

	rep, err := Run(context.Background(), cat, newPool(t), Options{Criteria: domain.SearchCriteria{Query: "zzz"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, rep.Items)
	assert.True(t, rep.EndOfData)
}

func TestRunFailedPage(t *testing.T) {
	boom := errors.New("boom")
	cat := catalogtest.NewCatalog().
		QueuePage(catalogtest.Items("a", 2), false).
		QueueError(boom)

	rep, err := Run(context.Background(), cat, newPool(t), Options{Pages: 3}, nil)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, rep)
	assert.Len(t, rep.Items, 2, "items loaded before the failure are kept")
}

func TestRunExpandsDetails(t *testing.T) {
	items := catalogtest.Items("a", 3)
	cat := catalogtest.NewCatalog().QueuePage(items, true)
	cat.SetDetail(items[0].Key(), &domain.Detail{Item: items[0], Versions: []domain.Version{{Name: "1.0"}, {Number: "0.9"}}})
	cat.SetDetailError(items[1].Key(), domain.ErrNotFound)

	rep, err := Run(context.Background(), cat, newPool(t), Options{Details: 2}, nil)
	require.NoError(t, err)

	require.Len(t, rep.Details, 2)
	assert.Equal(t, []string{"1.0", "0.9"}, rep.Details[0].Versions)
	assert.NoError(t, rep.Details[0].Err)
	assert.ErrorIs(t, rep.Details[1].Err, domain.ErrNotFound)
	assert.Len(t, cat.DetailCalls(), 2)
}

package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := New(4, nil)
	defer l.Stop()

	var got []int
	for i := 0; i < 100; i++ {
		l.Post(func() { got = append(got, i) })
	}
	require.True(t, l.Sync(func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopPostFromLoop(t *testing.T) {
	l := New(0, nil)
	defer l.Stop()

	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})
	<-done
}

func TestLoopSurvivesPanic(t *testing.T) {
	l := New(1, nil)
	defer l.Stop()

	l.Post(func() { panic("boom") })
	ran := false
	require.True(t, l.Sync(func() { ran = true }))
	assert.True(t, ran)
}

func TestLoopStop(t *testing.T) {
	l := New(1, nil)
	l.Stop()
	l.Stop()

	ran := false
	l.Post(func() { ran = true })
	assert.False(t, l.Sync(func() { ran = true }))
	assert.False(t, ran)
}

func TestQueueDrainIncludesNestedPosts(t *testing.T) {
	var q Queue
	var got []string
	q.Post(func() {
		got = append(got, "a")
		q.Post(func() { got = append(got, "c") })
	})
	q.Post(func() { got = append(got, "b") })

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 3, q.Drain())
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, q.Len())
}

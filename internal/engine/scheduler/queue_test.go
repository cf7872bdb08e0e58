package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveQueue_FIFO(t *testing.T) {
	q := newResolveQueue()

	require.True(t, q.Enqueue(ResolveRequest{Target: "a"}))
	require.True(t, q.Enqueue(ResolveRequest{Target: "b"}))
	assert.Equal(t, 2, q.Len())

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}

	first, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "a", first.Target)

	second, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "b", second.Target)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestResolveQueue_Close(t *testing.T) {
	q := newResolveQueue()
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(ResolveRequest{Target: "late"}))

	_, open := <-q.Wait()
	assert.False(t, open)
}

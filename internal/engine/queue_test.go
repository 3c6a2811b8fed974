package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()
	for _, kind := range []string{"create", "lock", "delete"} {
		require.True(t, q.Enqueue(Task{Kind: kind}))
	}
	assert.Equal(t, 3, q.Len())

	var got []string
	for {
		task, ok := q.TryDequeue()
		if !ok {
			break
		}
		got = append(got, task.Kind)
	}
	assert.Equal(t, []string{"create", "lock", "delete"}, got)
	assert.Equal(t, 0, q.Len())
}

func TestTaskQueue_EnqueueSignals(t *testing.T) {
	q := newTaskQueue()
	q.Enqueue(Task{Kind: "a"})
	q.Enqueue(Task{Kind: "b"})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestTaskQueue_Close(t *testing.T) {
	q := newTaskQueue()
	q.Enqueue(Task{Kind: "pending"})
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(Task{Kind: "late"}))

	_, ok := q.TryDequeue()
	assert.True(t, ok, "queued tasks survive Close")

	_, open := <-q.Wait()
	assert.True(t, open, "wake-up from Enqueue is delivered before the close")
	_, open = <-q.Wait()
	assert.False(t, open, "Wait channel is closed")
}

func TestTaskQueue_CloseWithoutPendingWakeUp(t *testing.T) {
	q := newTaskQueue()
	q.Close()
	q.Close()

	select {
	case _, open := <-q.Wait():
		assert.False(t, open)
	default:
		t.Fatal("closed queue should not block Wait")
	}
}

package state

import (
	"testing"
	"time"

	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/eventbus/testbus"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 500 * time.Millisecond

func ids(todos []todo.Todo) []int64 {
	out := make([]int64, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

func TestStore_AllEmpty(t *testing.T) {
	s := New(nil)

	all := s.All()
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestStore_AllIsOrdered(t *testing.T) {
	s := New(nil)
	s.Upsert(todo.Todo{ID: 3, Title: "c", Priority: 1})
	s.Upsert(todo.Todo{ID: 1, Title: "a", Priority: 1})
	s.Upsert(todo.Todo{ID: 2, Title: "b", Priority: 7})

	assert.Equal(t, []int64{2, 1, 3}, ids(s.All()))

	// order reflects later mutations without any explicit refresh
	s.Upsert(todo.Todo{ID: 3, Title: "c", Priority: 9})
	assert.Equal(t, []int64{3, 2, 1}, ids(s.All()))
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	s := New(nil)
	td := todo.Todo{ID: 1, Title: "a", Priority: 1}

	s.Upsert(td)
	s.Upsert(td)

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, td, got)
}

func TestStore_Remove(t *testing.T) {
	s := New(nil)
	s.Upsert(todo.Todo{ID: 1, Title: "a"})

	removed, ok := s.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, "a", removed.Title)

	_, ok = s.Remove(1)
	assert.False(t, ok, "removing a missing id is a no-op")
	assert.Equal(t, 0, s.Len())
}

func TestStore_RemoveFunc(t *testing.T) {
	s := New(nil)
	s.Upsert(todo.Todo{ID: 1, Completed: true})
	s.Upsert(todo.Todo{ID: 2})
	s.Upsert(todo.Todo{ID: 3, Completed: true})

	removed := s.RemoveFunc(func(t todo.Todo) bool { return t.Completed })

	assert.ElementsMatch(t, []int64{1, 3}, ids(removed))
	assert.Equal(t, []int64{2}, ids(s.All()))
}

func TestStore_ReplaceAll(t *testing.T) {
	s := New(nil)
	s.Upsert(todo.Todo{ID: 99})

	s.ReplaceAll([]todo.Todo{{ID: 1, Priority: 1}, {ID: 2, Priority: 2}})

	assert.Equal(t, []int64{2, 1}, ids(s.All()))
	_, ok := s.Get(99)
	assert.False(t, ok)
}

func TestStore_PublishesChanges(t *testing.T) {
	tb := testbus.New(t)
	s := New(tb.EventBus)

	s.Upsert(todo.Todo{ID: 1})
	s.Remove(1)
	s.Remove(1) // no-op, no event
	s.ReplaceAll(nil)

	require.True(t, tb.WaitForCount(eventbus.EventStateChanged, 3, testTimeout))

	var kinds []eventbus.ChangeKind
	for _, e := range tb.Events() {
		if p, ok := e.Payload.(eventbus.StateChangedPayload); ok {
			kinds = append(kinds, p.Kind)
		}
	}
	assert.Equal(t, []eventbus.ChangeKind{
		eventbus.ChangeUpserted,
		eventbus.ChangeRemoved,
		eventbus.ChangeReplaced,
	}, kinds)
}

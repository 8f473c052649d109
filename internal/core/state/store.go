// Package state holds the client-side source of truth for active todos.
package state

import (
	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/pkg/kv"
)

// Store is the in-memory collection of active todos. Storage is keyed by id
// and unordered; All derives presentation order on every call. Every
// mutation publishes a state.changed event when a bus is attached.
//
// Store is safe for concurrent use.
type Store struct {
	todos *kv.Store[int64, todo.Todo]
	bus   *eventbus.EventBus
}

// New creates an empty store. bus may be nil.
func New(bus *eventbus.EventBus) *Store {
	return &Store{
		todos: kv.New[int64, todo.Todo](),
		bus:   bus,
	}
}

// All returns every active todo in presentation order.
func (s *Store) All() []todo.Todo {
	out := s.todos.Values()
	todo.Sort(out)
	return out
}

// Get returns the todo with the given id.
func (s *Store) Get(id int64) (todo.Todo, bool) {
	return s.todos.Get(id)
}

// Len returns the number of active todos.
func (s *Store) Len() int {
	return s.todos.Len()
}

// Upsert inserts t or replaces the todo with the same id.
func (s *Store) Upsert(t todo.Todo) {
	s.todos.Set(t.ID, t)
	s.publish(eventbus.ChangeUpserted, t.ID)
}

// Remove deletes the todo with the given id. Missing ids are ignored.
func (s *Store) Remove(id int64) (todo.Todo, bool) {
	removed, ok := s.todos.Delete(id)
	if ok {
		s.publish(eventbus.ChangeRemoved, id)
	}
	return removed, ok
}

// RemoveFunc deletes every todo matching fn and returns them.
func (s *Store) RemoveFunc(fn func(todo.Todo) bool) []todo.Todo {
	removed := s.todos.DeleteFunc(func(_ int64, t todo.Todo) bool { return fn(t) })
	if len(removed) > 0 {
		ids := make([]int64, 0, len(removed))
		for _, t := range removed {
			ids = append(ids, t.ID)
		}
		s.publish(eventbus.ChangeRemoved, ids...)
	}
	return removed
}

// ReplaceAll atomically swaps the whole collection for todos.
func (s *Store) ReplaceAll(todos []todo.Todo) {
	items := make(map[int64]todo.Todo, len(todos))
	for _, t := range todos {
		items[t.ID] = t
	}
	s.todos.Replace(items)
	s.publish(eventbus.ChangeReplaced)
}

func (s *Store) publish(kind eventbus.ChangeKind, ids ...int64) {
	if s.bus == nil {
		return
	}
	s.bus.PublishStateChanged(eventbus.StateChangedPayload{
		Kind:  kind,
		IDs:   ids,
		Count: s.todos.Len(),
	})
}

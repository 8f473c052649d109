// Package engine applies user intents to the local todo list optimistically
// and reconciles each change with the remote store once the remote call
// resolves.
//
// Every mutating handler follows the same template: validate, apply the
// change locally, call the remote, then confirm or roll back. Adding a todo
// is the one exception to rollback: when the remote create fails the
// provisional todo is kept so no user input is lost.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/core/state"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/pkg/kv"
)

// Options tune dispatcher behavior.
type Options struct {
	// MarkAllConcurrency bounds concurrent remote calls in MarkAllCompleted.
	// 1 issues them sequentially.
	MarkAllConcurrency int
}

// DefaultOptions returns the sequential baseline.
func DefaultOptions() Options {
	return Options{MarkAllConcurrency: 1}
}

// Dispatcher handles one command per user intent. It is safe for concurrent
// use; commands on the same todo are serialized.
type Dispatcher struct {
	store  *state.Store
	remote todo.Remote
	bus    *eventbus.EventBus
	log    zerolog.Logger
	opts   Options

	lanes *lanes
	ids   *todo.IDGenerator
	// provisional tracks todos the remote has never confirmed.
	provisional *kv.Store[int64, struct{}]
}

// New creates a Dispatcher. bus may be nil.
func New(store *state.Store, remote todo.Remote, bus *eventbus.EventBus, log zerolog.Logger, opts Options) *Dispatcher {
	if opts.MarkAllConcurrency < 1 {
		opts.MarkAllConcurrency = 1
	}
	return &Dispatcher{
		store:       store,
		remote:      remote,
		bus:         bus,
		log:         log.With().Str(logging.ComponentKey, "engine").Logger(),
		opts:        opts,
		lanes:       newLanes(),
		ids:         todo.NewIDGenerator(),
		provisional: kv.New[int64, struct{}](),
	}
}

// All returns the active todos in presentation order.
func (d *Dispatcher) All() []todo.Todo {
	return d.store.All()
}

// IsProvisional reports whether id belongs to a todo only known locally.
func (d *Dispatcher) IsProvisional(id int64) bool {
	_, ok := d.provisional.Get(id)
	return ok
}

// Add creates a todo from the trimmed title. The provisional todo is shown immediately and replaced
// by the server's copy on success, or kept permanently on failure.
func (d *Dispatcher) Add(ctx context.Context, title string) Outcome {
	ctx = withCommand(ctx, uuid.NewString(), 0)
	title = todo.NormalizeTitle(title)
	if err := todo.ValidateTitle(title); err != nil {
		return d.skip(ctx, "add", 0, StatusRejected, err)
	}

	provisional := todo.Todo{
		ID:       d.ids.Next(),
		Title:    title,
		Priority: todo.FallbackPriority,
	}
	defer d.lanes.item(provisional.ID)()

	var created todo.Todo
	current := provisional
	return d.execute(ctx, mutation{
		op: "add",
		id: provisional.ID,
		apply: func() {
			d.provisional.Set(provisional.ID, struct{}{})
			d.store.Upsert(provisional)
		},
		call: func(ctx context.Context) error {
			var err error
			created, err = d.remote.Create(ctx, title)
			if err != nil {
				return fmt.Errorf("create todo: %w", err)
			}
			return nil
		},
		confirm: func() {
			if created.Title == "" {
				created.Title = provisional.Title
			}
			d.provisional.Delete(provisional.ID)
			d.store.Remove(provisional.ID)
			d.store.Upsert(created)
			current = created
		},
		result: func() todo.Todo { return current },
	})
}

// ToggleCompleted flips the completed flag. A failed remote call restores
// the previous value.
func (d *Dispatcher) ToggleCompleted(ctx context.Context, id int64) Outcome {
	return d.update(ctx, "toggle", id, nil, func(t *todo.Todo) {
		t.Completed = !t.Completed
	}, func(ctx context.Context) error {
		return d.remote.ToggleComplete(ctx, id)
	})
}

// Rename sets a new, trimmed title. Invalid titles are rejected before dispatch.
func (d *Dispatcher) Rename(ctx context.Context, id int64, title string) Outcome {
	title = todo.NormalizeTitle(title)
	if err := todo.ValidateTitle(title); err != nil {
		return d.skip(withCommand(ctx, uuid.NewString(), id), "rename", id, StatusRejected, err)
	}
	return d.update(ctx, "rename", id, nil, func(t *todo.Todo) {
		t.Title = title
	}, func(ctx context.Context) error {
		return d.remote.Rename(ctx, id, title)
	})
}

// IncreasePriority raises priority by one unless the todo is completed or
// already at the upper bound.
func (d *Dispatcher) IncreasePriority(ctx context.Context, id int64) Outcome {
	return d.update(ctx, "increase_priority", id, func(t todo.Todo) error {
		return priorityGuard(t, t.CanRaise())
	}, func(t *todo.Todo) {
		t.Priority++
	}, func(ctx context.Context) error {
		return d.remote.IncreasePriority(ctx, id)
	})
}

// DecreasePriority lowers priority by one unless the todo is completed or
// already at the lower bound.
func (d *Dispatcher) DecreasePriority(ctx context.Context, id int64) Outcome {
	return d.update(ctx, "decrease_priority", id, func(t todo.Todo) error {
		return priorityGuard(t, t.CanLower())
	}, func(t *todo.Todo) {
		t.Priority--
	}, func(ctx context.Context) error {
		return d.remote.DecreasePriority(ctx, id)
	})
}

func priorityGuard(t todo.Todo, allowed bool) error {
	switch {
	case t.Completed:
		return ErrCompleted
	case !allowed:
		return ErrAtBound
	}
	return nil
}

// update runs a single-item in-place mutation under the item's lane.
func (d *Dispatcher) update(
	ctx context.Context,
	op string,
	id int64,
	guard func(todo.Todo) error,
	change func(*todo.Todo),
	call func(context.Context) error,
) Outcome {
	ctx = withCommand(ctx, uuid.NewString(), id)
	defer d.lanes.item(id)()

	prev, ok := d.store.Get(id)
	if !ok {
		return d.skip(ctx, op, id, StatusSkipped, ErrNotFound)
	}
	if guard != nil {
		if err := guard(prev); err != nil {
			return d.skip(ctx, op, id, StatusSkipped, err)
		}
	}

	next := prev
	change(&next)

	current := next
	m := mutation{
		op:     op,
		id:     id,
		apply:  func() { d.store.Upsert(next) },
		revert: func() { d.store.Upsert(prev); current = prev },
		call: func(ctx context.Context) error {
			if err := call(ctx); err != nil {
				return fmt.Errorf("%s todo %d: %w", op, id, err)
			}
			return nil
		},
		result: func() todo.Todo { return current },
	}
	if d.IsProvisional(id) {
		m.call = nil
	}
	return d.execute(ctx, m)
}

// Delete removes a todo. A failed remote call restores it.
func (d *Dispatcher) Delete(ctx context.Context, id int64) Outcome {
	ctx = withCommand(ctx, uuid.NewString(), id)
	defer d.lanes.item(id)()

	prev, ok := d.store.Get(id)
	if !ok {
		return d.skip(ctx, "delete", id, StatusSkipped, ErrNotFound)
	}

	m := mutation{
		op:     "delete",
		id:     id,
		apply:  func() { d.store.Remove(id) },
		revert: func() { d.store.Upsert(prev) },
		call: func(ctx context.Context) error {
			if err := d.remote.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete todo %d: %w", id, err)
			}
			return nil
		},
		confirm: func() { d.provisional.Delete(id) },
		result:  func() todo.Todo { return prev },
	}
	if d.IsProvisional(id) {
		m.call = nil
		m.apply = func() {
			d.store.Remove(id)
			d.provisional.Delete(id)
		}
	}
	return d.execute(ctx, m)
}

// ClearAll empties the active set. A failed remote call restores it.
func (d *Dispatcher) ClearAll(ctx context.Context) Outcome {
	ctx = withCommand(ctx, uuid.NewString(), 0)
	defer d.lanes.all()()

	snapshot := d.store.All()
	return d.execute(ctx, mutation{
		op:     "clear",
		apply:  func() { d.store.ReplaceAll(nil) },
		revert: func() { d.store.ReplaceAll(snapshot) },
		call: func(ctx context.Context) error {
			if err := d.remote.Clear(ctx); err != nil {
				return fmt.Errorf("clear todos: %w", err)
			}
			return nil
		},
		confirm: func() { d.provisional.Clear() },
	})
}

// ArchiveCompleted moves completed todos out of the active set. Archived
// todos are not mirrored locally; use FetchArchived to list them. A failed
// remote call puts them back.
func (d *Dispatcher) ArchiveCompleted(ctx context.Context) Outcome {
	ctx = withCommand(ctx, uuid.NewString(), 0)
	defer d.lanes.all()()

	var removed []todo.Todo
	return d.execute(ctx, mutation{
		op: "archive",
		apply: func() {
			removed = d.store.RemoveFunc(func(t todo.Todo) bool { return t.Completed })
		},
		revert: func() {
			for _, t := range removed {
				d.store.Upsert(t)
			}
		},
		call: func(ctx context.Context) error {
			if err := d.remote.ArchiveCompleted(ctx); err != nil {
				return fmt.Errorf("archive completed todos: %w", err)
			}
			return nil
		},
		confirm: func() {
			for _, t := range removed {
				d.provisional.Delete(t.ID)
			}
		},
	})
}

// MarkAllCompleted completes every incomplete todo with one remote toggle per
// todo. Calls run with bounded concurrency and stop dispatching after the
// first failure. Once all calls have returned, each todo whose toggle
// succeeded is marked completed locally.
func (d *Dispatcher) MarkAllCompleted(ctx context.Context) Outcome {
	ctx = withCommand(ctx, uuid.NewString(), 0)
	defer d.lanes.all()()

	var (
		pending []todo.Todo
		done    []int64
		mu      sync.Mutex
	)
	for _, t := range d.store.All() {
		switch {
		case t.Completed:
		case d.IsProvisional(t.ID):
			done = append(done, t.ID)
		default:
			pending = append(pending, t)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.MarkAllConcurrency)
	for _, t := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := d.remote.ToggleComplete(gctx, t.ID); err != nil {
				return fmt.Errorf("complete todo %d: %w", t.ID, err)
			}
			mu.Lock()
			done = append(done, t.ID)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	for _, id := range done {
		if t, ok := d.store.Get(id); ok {
			t.Completed = true
			d.store.Upsert(t)
		}
	}

	m := mutation{op: "complete_all"}
	switch {
	case err == nil:
		return d.finish(ctx, m, Outcome{Status: StatusConfirmed})
	case len(done) > 0:
		return d.finish(ctx, m, Outcome{Status: StatusPartial, Err: fmt.Errorf("complete_all: %w", err)})
	default:
		return d.finish(ctx, m, Outcome{Status: StatusRolledBack, Err: fmt.Errorf("complete_all: %w", err)})
	}
}

// FetchActive replaces the local active set with the remote's. Todos the
// remote never confirmed are carried over. On failure the local set is left
// untouched and the error is returned alongside it.
func (d *Dispatcher) FetchActive(ctx context.Context) ([]todo.Todo, error) {
	ctx = withCommand(ctx, uuid.NewString(), 0)
	defer d.lanes.all()()

	todos, err := d.remote.ListActive(ctx)
	if err != nil {
		d.log.Warn().Ctx(ctx).Err(err).Msg("fetch active todos failed, keeping local state")
		return d.store.All(), fmt.Errorf("fetch active todos: %w", err)
	}

	for _, id := range d.provisional.Keys() {
		if t, ok := d.store.Get(id); ok {
			todos = append(todos, t)
		}
	}
	d.store.ReplaceAll(todos)

	d.log.Debug().Ctx(ctx).Int("count", len(todos)).Msg("fetched active todos")
	return d.store.All(), nil
}

// FetchArchived returns the remote's archived todos. They are not stored locally.
func (d *Dispatcher) FetchArchived(ctx context.Context) ([]todo.Todo, error) {
	ctx = withCommand(ctx, uuid.NewString(), 0)

	todos, err := d.remote.ListArchived(ctx)
	if err != nil {
		d.log.Warn().Ctx(ctx).Err(err).Msg("fetch archived todos failed")
		return nil, fmt.Errorf("fetch archived todos: %w", err)
	}
	return todos, nil
}

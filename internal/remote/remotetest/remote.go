// Package remotetest provides an in-memory todo.Remote for tests. It mirrors
// the reference server's semantics and lets tests inject failures and
// inspect the calls the engine made.
package remotetest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/colonyops/tend/internal/core/todo"
)

// Op names a remote operation.
type Op string

const (
	OpListActive       Op = "list_active"
	OpListArchived     Op = "list_archived"
	OpCreate           Op = "create"
	OpToggleComplete   Op = "toggle_complete"
	OpRename           Op = "rename"
	OpDelete           Op = "delete"
	OpIncreasePriority Op = "increase_priority"
	OpDecreasePriority Op = "decrease_priority"
	OpClear            Op = "clear"
	OpArchiveCompleted Op = "archive_completed"
)

// Call records a single invocation.
type Call struct {
	Op    Op
	ID    int64
	Title string
}

// Remote is a thread-safe in-memory remote store.
type Remote struct {
	mu       sync.Mutex
	nextID   int64
	active   map[int64]todo.Todo
	archived []todo.Todo
	failures map[Op]int // remaining failures per op; -1 fails forever
	failIDs  map[int64]bool
	calls    []Call

	// BeforeCall, when set, runs before every operation outside the lock.
	// Tests use it to block or observe in-flight calls.
	BeforeCall func(c Call)
}

var _ todo.Remote = (*Remote)(nil)

// New creates an empty remote.
func New() *Remote {
	return &Remote{
		nextID:   1,
		active:   make(map[int64]todo.Todo),
		failures: make(map[Op]int),
		failIDs:  make(map[int64]bool),
	}
}

// Seed inserts todos as if the remote already held them.
func (r *Remote) Seed(todos ...todo.Todo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range todos {
		r.active[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
}

// Fail makes op fail on every call until Recover is called.
func (r *Remote) Fail(ops ...Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range ops {
		r.failures[op] = -1
	}
}

// FailTimes makes op fail on its next n calls.
func (r *Remote) FailTimes(op Op, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = n
}

// FailID makes every id-targeted operation on id fail.
func (r *Remote) FailID(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failIDs[id] = true
}

// Recover clears all injected failures.
func (r *Remote) Recover() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = make(map[Op]int)
	r.failIDs = make(map[int64]bool)
}

// Calls returns a copy of every recorded call.
func (r *Remote) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallCount returns how many times op was called.
func (r *Remote) CallCount(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Active returns the remote's active todos in presentation order.
func (r *Remote) Active() []todo.Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

// Archived returns the remote's archived todos.
func (r *Remote) Archived() []todo.Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.archived)
}

func (r *Remote) activeLocked() []todo.Todo {
	out := make([]todo.Todo, 0, len(r.active))
	for _, t := range r.active {
		out = append(out, t)
	}
	todo.Sort(out)
	return out
}

// begin records the call and reports an injected failure, if any.
func (r *Remote) begin(ctx context.Context, c Call) error {
	if r.BeforeCall != nil {
		r.BeforeCall(c)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", c.Op, todo.ErrRemote, err)
	}

	r.mu.Lock()
	r.calls = append(r.calls, c)
	fail := false
	if n, ok := r.failures[c.Op]; ok && n != 0 {
		fail = true
		if n > 0 {
			r.failures[c.Op] = n - 1
		}
	}
	if c.ID != 0 && r.failIDs[c.ID] {
		fail = true
	}
	r.mu.Unlock()

	if fail {
		return fmt.Errorf("%s: %w: injected failure", c.Op, todo.ErrRemote)
	}
	return nil
}

func notFound(op Op, id int64) error {
	return fmt.Errorf("%s: %w: todo %d: %w", op, todo.ErrRemote, id, todo.ErrNotFound)
}

func (r *Remote) ListActive(ctx context.Context) ([]todo.Todo, error) {
	if err := r.begin(ctx, Call{Op: OpListActive}); err != nil {
		return nil, err
	}
	return r.Active(), nil
}

func (r *Remote) ListArchived(ctx context.Context) ([]todo.Todo, error) {
	if err := r.begin(ctx, Call{Op: OpListArchived}); err != nil {
		return nil, err
	}
	return r.Archived(), nil
}

func (r *Remote) Create(ctx context.Context, title string) (todo.Todo, error) {
	if err := r.begin(ctx, Call{Op: OpCreate, Title: title}); err != nil {
		return todo.Todo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	t := todo.Todo{ID: r.nextID, Title: title, Priority: todo.MinPriority}
	r.nextID++
	r.active[t.ID] = t
	return t, nil
}

func (r *Remote) ToggleComplete(ctx context.Context, id int64) error {
	return r.update(ctx, Call{Op: OpToggleComplete, ID: id}, func(t *todo.Todo) {
		t.Completed = !t.Completed
	})
}

func (r *Remote) Rename(ctx context.Context, id int64, title string) error {
	return r.update(ctx, Call{Op: OpRename, ID: id, Title: title}, func(t *todo.Todo) {
		t.Title = title
	})
}

func (r *Remote) IncreasePriority(ctx context.Context, id int64) error {
	return r.update(ctx, Call{Op: OpIncreasePriority, ID: id}, func(t *todo.Todo) {
		if t.CanRaise() {
			t.Priority++
		}
	})
}

func (r *Remote) DecreasePriority(ctx context.Context, id int64) error {
	return r.update(ctx, Call{Op: OpDecreasePriority, ID: id}, func(t *todo.Todo) {
		if t.CanLower() {
			t.Priority--
		}
	})
}

func (r *Remote) update(ctx context.Context, c Call, fn func(*todo.Todo)) error {
	if err := r.begin(ctx, c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.active[c.ID]
	if !ok {
		return notFound(c.Op, c.ID)
	}
	fn(&t)
	r.active[c.ID] = t
	return nil
}

func (r *Remote) Delete(ctx context.Context, id int64) error {
	if err := r.begin(ctx, Call{Op: OpDelete, ID: id}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; !ok {
		return notFound(OpDelete, id)
	}
	delete(r.active, id)
	return nil
}

func (r *Remote) Clear(ctx context.Context) error {
	if err := r.begin(ctx, Call{Op: OpClear}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = make(map[int64]todo.Todo)
	return nil
}

func (r *Remote) ArchiveCompleted(ctx context.Context) error {
	if err := r.begin(ctx, Call{Op: OpArchiveCompleted}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.activeLocked() {
		if t.Completed {
			r.archived = append(r.archived, t)
			delete(r.active, t.ID)
		}
	}
	return nil
}

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/eventbus/testbus"
	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/core/state"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/remote/remotetest"
)

const testTimeout = 500 * time.Millisecond

type fixture struct {
	d      *Dispatcher
	remote *remotetest.Remote
	store  *state.Store
}

func newFixture(t *testing.T, opts Options, seed ...todo.Todo) fixture {
	t.Helper()

	r := remotetest.New()
	r.Seed(seed...)
	s := state.New(nil)
	d := New(s, r, nil, zerolog.Nop(), opts)

	if len(seed) > 0 {
		_, err := d.FetchActive(context.Background())
		require.NoError(t, err)
	}
	return fixture{d: d, remote: r, store: s}
}

func titles(todos []todo.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Title)
	}
	return out
}

func TestAdd_Confirmed(t *testing.T) {
	f := newFixture(t, DefaultOptions())

	out := f.d.Add(context.Background(), "buy milk")

	require.Equal(t, StatusConfirmed, out.Status)
	require.NoError(t, out.Err)
	assert.Equal(t, int64(1), out.Todo.ID)
	assert.Equal(t, todo.MinPriority, out.Todo.Priority)

	all := f.d.All()
	require.Len(t, all, 1)
	assert.Equal(t, out.Todo, all[0])
	assert.False(t, f.d.IsProvisional(all[0].ID))
}

func TestAdd_RemoteFailureKeepsProvisional(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.remote.Fail(remotetest.OpCreate)

	out := f.d.Add(context.Background(), "offline")

	require.Equal(t, StatusKept, out.Status)
	require.ErrorIs(t, out.Err, todo.ErrRemote)
	assert.False(t, out.Synced())

	all := f.d.All()
	require.Len(t, all, 1)
	assert.Equal(t, "offline", all[0].Title)
	assert.Equal(t, todo.FallbackPriority, all[0].Priority)
	assert.False(t, all[0].Completed)
	assert.True(t, f.d.IsProvisional(all[0].ID))
}

func TestAdd_ProvisionalIDsAreUnique(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.remote.Fail(remotetest.OpCreate)

	for range 20 {
		f.d.Add(context.Background(), "same")
	}

	all := f.d.All()
	assert.Len(t, all, 20)
}

func TestAdd_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  error
	}{
		{name: "empty", title: "", want: todo.ErrTitleEmpty},
		{name: "whitespace", title: "   ", want: todo.ErrTitleEmpty},
		{name: "too long", title: strings.Repeat("x", todo.MaxTitleLen+1), want: todo.ErrTitleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultOptions())

			out := f.d.Add(context.Background(), tt.title)

			assert.Equal(t, StatusRejected, out.Status)
			assert.ErrorIs(t, out.Err, tt.want)
			assert.Zero(t, f.remote.CallCount(remotetest.OpCreate))
			assert.Zero(t, f.store.Len())
		})
	}
}

func TestAdd_TrimsTitle(t *testing.T) {
	f := newFixture(t, DefaultOptions())

	out := f.d.Add(context.Background(), "  milk  ")
	require.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, "milk", out.Todo.Title)
	assert.Equal(t, "milk", f.remote.Active()[0].Title)

	maxed := strings.Repeat("a", todo.MaxTitleLen)
	out = f.d.Add(context.Background(), maxed+" ")
	require.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, maxed, out.Todo.Title)
}

func TestAdd_FailedCreateKeepsTrimmedTitle(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.remote.Fail(remotetest.OpCreate)

	out := f.d.Add(context.Background(), "\tbread ")
	require.Equal(t, StatusKept, out.Status)
	assert.Equal(t, "bread", out.Todo.Title)
}

func TestRename_TrimsTitle(t *testing.T) {
	f := newFixture(t, DefaultOptions(), todo.Todo{ID: 1, Title: "old", Priority: 1})
	_, err := f.d.FetchActive(context.Background())
	require.NoError(t, err)

	out := f.d.Rename(context.Background(), 1, " new name ")
	require.Equal(t, StatusConfirmed, out.Status)

	got, ok := f.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "new name", got.Title)
	assert.Equal(t, "new name", f.remote.Active()[0].Title)
}

func TestAdd_ThenFetchContainsTitleOnce(t *testing.T) {
	f := newFixture(t, DefaultOptions(), todo.Todo{ID: 7, Title: "existing", Priority: 4})

	out := f.d.Add(context.Background(), "fresh")
	require.Equal(t, StatusConfirmed, out.Status)

	fetched, err := f.d.FetchActive(context.Background())
	require.NoError(t, err)

	n := 0
	for _, td := range fetched {
		if td.Title == "fresh" {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, "fresh", fetched[len(fetched)-1].Title)
	assert.Len(t, fetched, 2)
}

func TestToggleCompleted(t *testing.T) {
	seed := todo.Todo{ID: 1, Title: "a", Priority: 3}

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)

		out := f.d.ToggleCompleted(context.Background(), 1)

		require.Equal(t, StatusConfirmed, out.Status)
		got, _ := f.store.Get(1)
		assert.True(t, got.Completed)
		assert.True(t, out.Todo.Completed)
	})

	t.Run("twice restores", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)

		f.d.ToggleCompleted(context.Background(), 1)
		f.d.ToggleCompleted(context.Background(), 1)

		got, _ := f.store.Get(1)
		assert.Equal(t, seed, got)
		assert.Equal(t, f.remote.Active(), f.d.All())
	})

	t.Run("rolled back", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)
		f.remote.Fail(remotetest.OpToggleComplete)

		out := f.d.ToggleCompleted(context.Background(), 1)

		assert.Equal(t, StatusRolledBack, out.Status)
		assert.ErrorIs(t, out.Err, todo.ErrRemote)
		got, _ := f.store.Get(1)
		assert.False(t, got.Completed)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)

		out := f.d.ToggleCompleted(context.Background(), 99)

		assert.Equal(t, StatusSkipped, out.Status)
		assert.ErrorIs(t, out.Err, ErrNotFound)
		assert.Zero(t, f.remote.CallCount(remotetest.OpToggleComplete))
	})
}

func TestRename(t *testing.T) {
	seed := todo.Todo{ID: 1, Title: "before", Priority: 2}

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)

		out := f.d.Rename(context.Background(), 1, "after")

		require.Equal(t, StatusConfirmed, out.Status)
		assert.Equal(t, "after", out.Todo.Title)
		assert.Equal(t, []string{"after"}, titles(f.remote.Active()))
	})

	t.Run("invalid title leaves state unchanged", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)

		for _, title := range []string{"", " \t", strings.Repeat("y", 23)} {
			out := f.d.Rename(context.Background(), 1, title)
			assert.Equal(t, StatusRejected, out.Status)
		}

		got, _ := f.store.Get(1)
		assert.Equal(t, seed, got)
		assert.Zero(t, f.remote.CallCount(remotetest.OpRename))
	})

	t.Run("rolled back", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed)
		f.remote.Fail(remotetest.OpRename)

		out := f.d.Rename(context.Background(), 1, "after")

		assert.Equal(t, StatusRolledBack, out.Status)
		assert.Equal(t, "before", out.Todo.Title)
		got, _ := f.store.Get(1)
		assert.Equal(t, "before", got.Title)
	})
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name     string
		seed     todo.Todo
		raise    bool
		fail     bool
		status   Status
		reason   error
		priority int
	}{
		{name: "raise", seed: todo.Todo{ID: 1, Priority: 4}, raise: true, status: StatusConfirmed, priority: 5},
		{name: "lower", seed: todo.Todo{ID: 1, Priority: 4}, status: StatusConfirmed, priority: 3},
		{name: "raise at max", seed: todo.Todo{ID: 1, Priority: todo.MaxPriority}, raise: true, status: StatusSkipped, reason: ErrAtBound, priority: todo.MaxPriority},
		{name: "lower at min", seed: todo.Todo{ID: 1, Priority: todo.MinPriority}, status: StatusSkipped, reason: ErrAtBound, priority: todo.MinPriority},
		{name: "raise completed", seed: todo.Todo{ID: 1, Priority: 4, Completed: true}, raise: true, status: StatusSkipped, reason: ErrCompleted, priority: 4},
		{name: "lower completed", seed: todo.Todo{ID: 1, Priority: 4, Completed: true}, status: StatusSkipped, reason: ErrCompleted, priority: 4},
		{name: "raise rolled back", seed: todo.Todo{ID: 1, Priority: 4}, raise: true, fail: true, status: StatusRolledBack, reason: todo.ErrRemote, priority: 4},
		{name: "lower rolled back", seed: todo.Todo{ID: 1, Priority: 4}, fail: true, status: StatusRolledBack, reason: todo.ErrRemote, priority: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.seed.Title = "p"
			f := newFixture(t, DefaultOptions(), tt.seed)
			if tt.fail {
				f.remote.Fail(remotetest.OpIncreasePriority, remotetest.OpDecreasePriority)
			}

			var out Outcome
			if tt.raise {
				out = f.d.IncreasePriority(context.Background(), 1)
			} else {
				out = f.d.DecreasePriority(context.Background(), 1)
			}

			assert.Equal(t, tt.status, out.Status)
			if tt.reason != nil {
				assert.ErrorIs(t, out.Err, tt.reason)
			} else {
				assert.NoError(t, out.Err)
			}
			got, _ := f.store.Get(1)
			assert.Equal(t, tt.priority, got.Priority)
		})
	}
}

func TestPriority_StaysWithinBounds(t *testing.T) {
	f := newFixture(t, DefaultOptions(), todo.Todo{ID: 1, Title: "p", Priority: 8})

	for range 5 {
		f.d.IncreasePriority(context.Background(), 1)
	}
	got, _ := f.store.Get(1)
	assert.Equal(t, todo.MaxPriority, got.Priority)

	for range 15 {
		f.d.DecreasePriority(context.Background(), 1)
	}
	got, _ = f.store.Get(1)
	assert.Equal(t, todo.MinPriority, got.Priority)
	assert.Equal(t, f.remote.Active(), f.d.All())
}

func TestDelete(t *testing.T) {
	seed := []todo.Todo{
		{ID: 1, Title: "a", Priority: 1},
		{ID: 2, Title: "b", Priority: 2},
	}

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)

		out := f.d.Delete(context.Background(), 1)

		assert.Equal(t, StatusConfirmed, out.Status)
		assert.Equal(t, 1, f.store.Len())
		_, ok := f.store.Get(1)
		assert.False(t, ok)
	})

	t.Run("rolled back", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)
		f.remote.Fail(remotetest.OpDelete)

		out := f.d.Delete(context.Background(), 1)

		assert.Equal(t, StatusRolledBack, out.Status)
		assert.Equal(t, seed[0], out.Todo)
		assert.Equal(t, 2, f.store.Len())
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)

		out := f.d.Delete(context.Background(), 42)

		assert.Equal(t, StatusSkipped, out.Status)
		assert.Zero(t, f.remote.CallCount(remotetest.OpDelete))
	})
}

func TestClearAll(t *testing.T) {
	seed := []todo.Todo{
		{ID: 1, Title: "a", Priority: 1},
		{ID: 2, Title: "b", Priority: 2, Completed: true},
	}

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)
		require.Equal(t, StatusConfirmed, f.d.ArchiveCompleted(context.Background()).Status)

		out := f.d.ClearAll(context.Background())

		assert.Equal(t, StatusConfirmed, out.Status)
		assert.Empty(t, f.d.All())
		assert.Empty(t, f.remote.Active())
		assert.Len(t, f.remote.Archived(), 1)
	})

	t.Run("rolled back", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)
		f.remote.Fail(remotetest.OpClear)

		out := f.d.ClearAll(context.Background())

		assert.Equal(t, StatusRolledBack, out.Status)
		assert.Equal(t, f.remote.Active(), f.d.All())
	})

	t.Run("forgets provisional todos", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		f.remote.Fail(remotetest.OpCreate)
		out := f.d.Add(context.Background(), "local")
		f.remote.Recover()

		f.d.ClearAll(context.Background())

		assert.False(t, f.d.IsProvisional(out.Todo.ID))
		fetched, err := f.d.FetchActive(context.Background())
		require.NoError(t, err)
		assert.Empty(t, fetched)
	})
}

func TestArchiveCompleted(t *testing.T) {
	seed := []todo.Todo{
		{ID: 1, Title: "open", Priority: 1},
		{ID: 2, Title: "done", Priority: 5, Completed: true},
		{ID: 3, Title: "also done", Priority: 2, Completed: true},
	}

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)

		out := f.d.ArchiveCompleted(context.Background())

		require.Equal(t, StatusConfirmed, out.Status)
		assert.Equal(t, []string{"open"}, titles(f.d.All()))

		archived, err := f.d.FetchArchived(context.Background())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"done", "also done"}, titles(archived))
		for _, a := range archived {
			assert.True(t, a.Completed)
		}
	})

	t.Run("rolled back", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)
		f.remote.Fail(remotetest.OpArchiveCompleted)

		out := f.d.ArchiveCompleted(context.Background())

		assert.Equal(t, StatusRolledBack, out.Status)
		assert.Len(t, f.d.All(), 3)
	})
}

func TestMarkAllCompleted(t *testing.T) {
	seed := []todo.Todo{
		{ID: 1, Title: "a", Priority: 3},
		{ID: 2, Title: "b", Priority: 2},
		{ID: 3, Title: "c", Priority: 1},
		{ID: 4, Title: "d", Priority: 1, Completed: true},
	}

	completed := func(s *state.Store) []int64 {
		var out []int64
		for _, t := range s.All() {
			if t.Completed {
				out = append(out, t.ID)
			}
		}
		return out
	}

	for _, n := range []int{1, 4} {
		t.Run(fmt.Sprintf("all succeed with concurrency %d", n), func(t *testing.T) {
			f := newFixture(t, Options{MarkAllConcurrency: n}, seed...)

			out := f.d.MarkAllCompleted(context.Background())

			assert.Equal(t, StatusConfirmed, out.Status)
			assert.Equal(t, []int64{1, 2, 3, 4}, completed(f.store))
			assert.Equal(t, 3, f.remote.CallCount(remotetest.OpToggleComplete))
			assert.Equal(t, f.remote.Active(), f.d.All())
		})
	}

	t.Run("first failure stops sequential dispatch", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)
		f.remote.FailID(2)

		out := f.d.MarkAllCompleted(context.Background())

		assert.Equal(t, StatusPartial, out.Status)
		assert.ErrorIs(t, out.Err, todo.ErrRemote)
		assert.Equal(t, []int64{1, 4}, completed(f.store))
		assert.Equal(t, 2, f.remote.CallCount(remotetest.OpToggleComplete))
	})

	t.Run("nothing succeeded", func(t *testing.T) {
		f := newFixture(t, DefaultOptions(), seed...)
		f.remote.Fail(remotetest.OpToggleComplete)

		out := f.d.MarkAllCompleted(context.Background())

		assert.Equal(t, StatusRolledBack, out.Status)
		assert.Equal(t, []int64{4}, completed(f.store))
	})
}

func TestFetchActive_FailureKeepsLocalState(t *testing.T) {
	f := newFixture(t, DefaultOptions(), todo.Todo{ID: 1, Title: "a", Priority: 1})
	before := f.d.All()
	f.remote.Fail(remotetest.OpListActive)

	got, err := f.d.FetchActive(context.Background())

	require.ErrorIs(t, err, todo.ErrRemote)
	assert.Equal(t, before, got)
	assert.Equal(t, before, f.d.All())
}

func TestFetchActive_KeepsProvisionalTodos(t *testing.T) {
	f := newFixture(t, DefaultOptions(), todo.Todo{ID: 1, Title: "remote", Priority: 1})
	f.remote.Fail(remotetest.OpCreate)
	f.d.Add(context.Background(), "local")
	f.remote.Recover()

	got, err := f.d.FetchActive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"remote", "local"}, titles(got))
}

func TestFetchArchived_Failure(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.remote.Fail(remotetest.OpListArchived)

	got, err := f.d.FetchArchived(context.Background())

	require.ErrorIs(t, err, todo.ErrRemote)
	assert.Nil(t, got)
}

func TestProvisionalTodos_ChangeLocally(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.remote.Fail(remotetest.OpCreate)
	added := f.d.Add(context.Background(), "local")
	f.remote.Recover()
	id := added.Todo.ID

	assert.Equal(t, StatusLocal, f.d.Rename(context.Background(), id, "renamed").Status)
	assert.Equal(t, StatusLocal, f.d.IncreasePriority(context.Background(), id).Status)
	assert.Equal(t, StatusLocal, f.d.ToggleCompleted(context.Background(), id).Status)

	got, ok := f.store.Get(id)
	require.True(t, ok)
	assert.Equal(t, todo.Todo{ID: id, Title: "renamed", Priority: 1, Completed: true}, got)

	assert.Equal(t, StatusLocal, f.d.Delete(context.Background(), id).Status)
	assert.False(t, f.d.IsProvisional(id))
	assert.Zero(t, f.store.Len())

	// only the failed create reached the remote
	assert.Len(t, f.remote.Calls(), 1)
}

func TestAll_AlwaysOrdered(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		f.d.Add(ctx, title)
	}
	f.d.IncreasePriority(ctx, 3)
	f.d.IncreasePriority(ctx, 3)
	f.d.IncreasePriority(ctx, 5)
	f.d.ToggleCompleted(ctx, 2)
	f.remote.Fail(remotetest.OpCreate)
	f.d.Add(ctx, "offline")

	all := f.d.All()
	assert.True(t, slices.IsSortedFunc(all, todo.Compare))
	assert.Equal(t, []string{"c", "e", "a", "b", "d", "offline"}, titles(all))
}

func TestLanes_SerializeSameTodo(t *testing.T) {
	f := newFixture(t, DefaultOptions(), todo.Todo{ID: 1, Title: "a", Priority: 1})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.remote.BeforeCall = func(c remotetest.Call) {
		if c.Op == remotetest.OpRename {
			close(entered)
			<-release
		}
	}

	var wg sync.WaitGroup
	var renamed, deleted Outcome
	wg.Add(2)
	go func() {
		defer wg.Done()
		renamed = f.d.Rename(context.Background(), 1, "b")
	}()
	<-entered
	go func() {
		defer wg.Done()
		deleted = f.d.Delete(context.Background(), 1)
	}()

	assert.Never(t, func() bool {
		return f.remote.CallCount(remotetest.OpDelete) > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
	_, ok := f.store.Get(1)
	assert.True(t, ok, "delete must wait for the pending rename")

	close(release)
	wg.Wait()

	assert.Equal(t, StatusConfirmed, renamed.Status)
	assert.Equal(t, StatusConfirmed, deleted.Status)
	assert.Equal(t, "b", deleted.Todo.Title)
	assert.Zero(t, f.store.Len())
}

func TestLanes_DifferentTodosRunConcurrently(t *testing.T) {
	f := newFixture(t, DefaultOptions(),
		todo.Todo{ID: 1, Title: "a", Priority: 1},
		todo.Todo{ID: 2, Title: "b", Priority: 1},
	)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.remote.BeforeCall = func(c remotetest.Call) {
		if c.Op == remotetest.OpRename {
			close(entered)
			<-release
		}
	}

	done := make(chan Outcome)
	go func() { done <- f.d.Rename(context.Background(), 1, "x") }()
	<-entered

	out := f.d.ToggleCompleted(context.Background(), 2)
	assert.Equal(t, StatusConfirmed, out.Status)

	close(release)
	assert.Equal(t, StatusConfirmed, (<-done).Status)
}

func TestDispatcher_PublishesEvents(t *testing.T) {
	tb := testbus.New(t)
	r := remotetest.New()
	d := New(state.New(tb.EventBus), r, tb.EventBus, zerolog.Nop(), DefaultOptions())

	r.Fail(remotetest.OpCreate)
	d.Add(context.Background(), "offline")

	require.True(t, tb.WaitFor(eventbus.EventCommandReconciled, testTimeout))
	tb.AssertPublished(t, eventbus.EventStateChanged)

	var got eventbus.CommandReconciledPayload
	for _, e := range tb.Events() {
		if e.Event == eventbus.EventCommandReconciled {
			got = e.Payload.(eventbus.CommandReconciledPayload)
		}
	}
	assert.Equal(t, "add", got.Op)
	assert.Equal(t, string(StatusKept), got.Status)
	assert.ErrorIs(t, got.Err, todo.ErrRemote)
}

func TestDispatcher_LogsUnderComponentKey(t *testing.T) {
	var buf bytes.Buffer
	d := New(state.New(nil), remotetest.New(), nil, zerolog.New(&buf).Level(zerolog.DebugLevel), DefaultOptions())

	_, err := d.FetchActive(context.Background())
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "engine", entry[logging.ComponentKey])
	assert.Equal(t, "fetched active todos", entry["message"])
}

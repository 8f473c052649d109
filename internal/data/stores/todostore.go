package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/data/db"
)

// ErrPriorityOutOfRange is returned when a todo is created outside the
// priority bounds.
var ErrPriorityOutOfRange = errors.New("priority out of range")

// TodoStore implements todo.Remote using SQLite. It is the authoritative
// store behind the reference server.
type TodoStore struct {
	db  *db.DB
	now func() time.Time
}

var _ todo.Remote = (*TodoStore)(nil)

// NewTodoStore creates a new SQLite-backed todo store.
func NewTodoStore(db *db.DB) *TodoStore {
	return &TodoStore{db: db, now: time.Now}
}

// ListActive returns non-archived todos ordered by priority then id.
func (s *TodoStore) ListActive(ctx context.Context) ([]todo.Todo, error) {
	rows, err := s.db.Queries().ListActiveTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active todos: %w", err)
	}
	return rowsToTodos(rows), nil
}

// ListArchived returns archived todos in archive order.
func (s *TodoStore) ListArchived(ctx context.Context) ([]todo.Todo, error) {
	rows, err := s.db.Queries().ListArchivedTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archived todos: %w", err)
	}
	return rowsToTodos(rows), nil
}

// Create persists a new todo with the default priority.
func (s *TodoStore) Create(ctx context.Context, title string) (todo.Todo, error) {
	return s.CreateWithPriority(ctx, title, todo.MinPriority)
}

// CreateWithPriority persists a new todo with an explicit priority.
func (s *TodoStore) CreateWithPriority(ctx context.Context, title string, priority int) (todo.Todo, error) {
	title = todo.NormalizeTitle(title)
	if err := todo.ValidateTitle(title); err != nil {
		return todo.Todo{}, err
	}
	if priority < todo.MinPriority || priority > todo.MaxPriority {
		return todo.Todo{}, fmt.Errorf("%w: %d", ErrPriorityOutOfRange, priority)
	}

	now := s.now().UnixNano()
	row, err := s.db.Queries().CreateTodo(ctx, db.CreateTodoParams{
		Title:     title,
		Priority:  int64(priority),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return todo.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return rowToTodo(row), nil
}

// ToggleComplete flips the completed flag of an active todo.
func (s *TodoStore) ToggleComplete(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(t *todo.Todo) {
		t.Completed = !t.Completed
	})
}

// Rename sets the title of an active todo.
func (s *TodoStore) Rename(ctx context.Context, id int64, title string) error {
	title = todo.NormalizeTitle(title)
	if err := todo.ValidateTitle(title); err != nil {
		return err
	}
	return s.update(ctx, id, func(t *todo.Todo) {
		t.Title = title
	})
}

// IncreasePriority raises priority by one. Completed todos and todos at
// MaxPriority are left unchanged.
func (s *TodoStore) IncreasePriority(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(t *todo.Todo) {
		if t.CanRaise() {
			t.Priority++
		}
	})
}

// DecreasePriority lowers priority by one. Completed todos and todos at
// MinPriority are left unchanged.
func (s *TodoStore) DecreasePriority(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(t *todo.Todo) {
		if t.CanLower() {
			t.Priority--
		}
	})
}

// update reads, changes, and writes back one active todo in a transaction.
func (s *TodoStore) update(ctx context.Context, id int64, fn func(*todo.Todo)) error {
	return s.db.WithTx(ctx, func(q *db.Queries) error {
		row, err := q.GetTodo(ctx, id)
		if IsNotFoundError(err) || (err == nil && row.Archived) {
			return fmt.Errorf("todo %d: %w", id, todo.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get todo: %w", err)
		}

		t := rowToTodo(row)
		fn(&t)

		_, err = q.UpdateTodo(ctx, db.UpdateTodoParams{
			ID:        t.ID,
			Title:     t.Title,
			Priority:  int64(t.Priority),
			Completed: t.Completed,
			UpdatedAt: s.now().UnixNano(),
		})
		if err != nil {
			return fmt.Errorf("update todo: %w", err)
		}
		return nil
	})
}

// Delete removes an active todo.
func (s *TodoStore) Delete(ctx context.Context, id int64) error {
	n, err := s.db.Queries().DeleteTodo(ctx, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("todo %d: %w", id, todo.ErrNotFound)
	}
	return nil
}

// Clear deletes every active todo. Archived todos are kept.
func (s *TodoStore) Clear(ctx context.Context) error {
	if _, err := s.db.Queries().DeleteActiveTodos(ctx); err != nil {
		return fmt.Errorf("clear todos: %w", err)
	}
	return nil
}

// ArchiveCompleted archives every completed active todo.
func (s *TodoStore) ArchiveCompleted(ctx context.Context) error {
	_, err := s.ArchiveCompletedCount(ctx)
	return err
}

// ArchiveCompletedCount archives every completed active todo and returns
// how many were archived.
func (s *TodoStore) ArchiveCompletedCount(ctx context.Context) (int64, error) {
	n, err := s.db.Queries().ArchiveCompletedTodos(ctx, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("archive completed todos: %w", err)
	}
	return n, nil
}

func rowToTodo(row db.Todo) todo.Todo {
	return todo.Todo{
		ID:        row.ID,
		Title:     row.Title,
		Priority:  int(row.Priority),
		Completed: row.Completed,
	}
}

func rowsToTodos(rows []db.Todo) []todo.Todo {
	out := make([]todo.Todo, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToTodo(row))
	}
	return out
}

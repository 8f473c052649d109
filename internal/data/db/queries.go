package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the todo queries against a connection or transaction.
type Queries struct {
	db DBTX
}

// New binds queries to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Todo is a row of the todos table.
type Todo struct {
	ID         int64
	Title      string
	Priority   int64
	Completed  bool
	Archived   bool
	CreatedAt  int64
	UpdatedAt  int64
	ArchivedAt sql.NullInt64
}

const todoColumns = `id, title, priority, completed, archived, created_at, updated_at, archived_at`

func scanTodo(row interface{ Scan(...any) error }) (Todo, error) {
	var t Todo
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Priority,
		&t.Completed,
		&t.Archived,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ArchivedAt,
	)
	return t, err
}

func (q *Queries) listTodos(ctx context.Context, query string, args ...any) ([]Todo, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateTodoParams holds the values for a new todo.
type CreateTodoParams struct {
	Title     string
	Priority  int64
	CreatedAt int64
	UpdatedAt int64
}

const createTodo = `INSERT INTO todos (title, priority, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING ` + todoColumns

func (q *Queries) CreateTodo(ctx context.Context, arg CreateTodoParams) (Todo, error) {
	return scanTodo(q.db.QueryRowContext(ctx, createTodo, arg.Title, arg.Priority, arg.CreatedAt, arg.UpdatedAt))
}

const getTodo = `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`

func (q *Queries) GetTodo(ctx context.Context, id int64) (Todo, error) {
	return scanTodo(q.db.QueryRowContext(ctx, getTodo, id))
}

const listActiveTodos = `SELECT ` + todoColumns + ` FROM todos
WHERE archived = 0
ORDER BY priority DESC, id ASC`

func (q *Queries) ListActiveTodos(ctx context.Context) ([]Todo, error) {
	return q.listTodos(ctx, listActiveTodos)
}

const listArchivedTodos = `SELECT ` + todoColumns + ` FROM todos
WHERE archived = 1
ORDER BY archived_at ASC, id ASC`

func (q *Queries) ListArchivedTodos(ctx context.Context) ([]Todo, error) {
	return q.listTodos(ctx, listArchivedTodos)
}

// UpdateTodoParams holds the mutable columns of an active todo.
type UpdateTodoParams struct {
	ID        int64
	Title     string
	Priority  int64
	Completed bool
	UpdatedAt int64
}

const updateTodo = `UPDATE todos
SET title = ?, priority = ?, completed = ?, updated_at = ?
WHERE id = ? AND archived = 0`

func (q *Queries) UpdateTodo(ctx context.Context, arg UpdateTodoParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTodo, arg.Title, arg.Priority, arg.Completed, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTodo = `DELETE FROM todos WHERE id = ? AND archived = 0`

func (q *Queries) DeleteTodo(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTodo, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteActiveTodos = `DELETE FROM todos WHERE archived = 0`

func (q *Queries) DeleteActiveTodos(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteActiveTodos)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const archiveCompletedTodos = `UPDATE todos
SET archived = 1, archived_at = ?, updated_at = ?
WHERE archived = 0 AND completed = 1`

func (q *Queries) ArchiveCompletedTodos(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, archiveCompletedTodos, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

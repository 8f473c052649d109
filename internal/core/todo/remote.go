package todo

import (
	"context"
	"errors"
)

// ErrRemote marks failures that originate from the remote store. Transport
// errors and non-success responses are both wrapped with it.
var ErrRemote = errors.New("remote store failure")

// ErrNotFound reports an id the store does not hold.
var ErrNotFound = errors.New("todo not found")

// Remote is the contract with the authoritative remote store. Every method
// may fail; failures carry no structure beyond success or failure.
type Remote interface {
	// ListActive returns all todos that are not archived.
	ListActive(ctx context.Context) ([]Todo, error)

	// ListArchived returns todos that were archived after completion.
	ListArchived(ctx context.Context) ([]Todo, error)

	// Create persists a new todo. The remote assigns ID and default Priority.
	Create(ctx context.Context, title string) (Todo, error)

	// ToggleComplete flips the completed flag. The remote is the source of
	// truth for the resulting value.
	ToggleComplete(ctx context.Context, id int64) error

	Rename(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error

	// IncreasePriority raises priority by one. The remote enforces MaxPriority.
	IncreasePriority(ctx context.Context, id int64) error

	// DecreasePriority lowers priority by one. The remote enforces MinPriority.
	DecreasePriority(ctx context.Context, id int64) error

	// Clear removes every active todo. Archived todos are kept.
	Clear(ctx context.Context) error

	// ArchiveCompleted moves every completed active todo into the archive.
	ArchiveCompleted(ctx context.Context) error
}

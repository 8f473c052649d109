package engine

import (
	"errors"

	"github.com/colonyops/tend/internal/core/todo"
)

// Status describes how a command ended.
type Status string

const (
	// StatusConfirmed means the remote accepted the change.
	StatusConfirmed Status = "confirmed"
	// StatusRolledBack means the remote failed and the local change was undone.
	StatusRolledBack Status = "rolled_back"
	// StatusKept means the remote failed and the local change was kept as a fallback.
	StatusKept Status = "kept"
	// StatusPartial means a multi-item command succeeded for some items only.
	StatusPartial Status = "partial"
	// StatusLocal means the command targeted a todo the remote never confirmed
	// and was applied locally without a remote call.
	StatusLocal Status = "local"
	// StatusSkipped means the command was a no-op.
	StatusSkipped Status = "skipped"
	// StatusRejected means input validation failed before dispatch.
	StatusRejected Status = "rejected"
)

// Reasons a command is skipped without contacting the remote.
var (
	ErrNotFound  = todo.ErrNotFound
	ErrCompleted = errors.New("todo is completed")
	ErrAtBound   = errors.New("priority already at bound")
)

// Outcome reports the result of a single command. Handlers never return
// remote failures as errors; they are reported here instead.
type Outcome struct {
	Op     string
	ID     int64
	Status Status
	// Todo is the resulting item for single-item commands, when one exists.
	Todo todo.Todo
	// Err is the validation error, skip reason, or remote failure.
	Err error
}

// Synced reports whether the local state matches what the remote accepted.
func (o Outcome) Synced() bool {
	return o.Status == StatusConfirmed
}

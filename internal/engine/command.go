package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/core/todo"
)

// mutation is an optimistic command: a local change, its inverse, and the
// remote call that makes it authoritative.
type mutation struct {
	op string
	id int64

	// apply performs the optimistic local change.
	apply func()
	// revert undoes apply. A nil revert keeps the optimistic state when the
	// remote call fails.
	revert func()
	// call issues the remote request. A nil call means the change is local only.
	call func(ctx context.Context) error
	// confirm adopts server-provided values after a successful call.
	confirm func()
	// result returns the todo to report on the outcome.
	result func() todo.Todo
}

// execute runs m to completion. The caller holds the lane for m.
func (d *Dispatcher) execute(ctx context.Context, m mutation) Outcome {
	m.apply()

	if m.call == nil {
		return d.finish(ctx, m, Outcome{Status: StatusLocal})
	}

	err := m.call(ctx)
	return d.reconcile(ctx, m, err)
}

// reconcile applies the remote outcome to the local state.
func (d *Dispatcher) reconcile(ctx context.Context, m mutation, err error) Outcome {
	if err == nil {
		if m.confirm != nil {
			m.confirm()
		}
		return d.finish(ctx, m, Outcome{Status: StatusConfirmed})
	}

	if !errors.Is(err, todo.ErrRemote) {
		err = fmt.Errorf("%w: %w", todo.ErrRemote, err)
	}
	err = fmt.Errorf("%s: %w", m.op, err)

	if m.revert != nil {
		m.revert()
		return d.finish(ctx, m, Outcome{Status: StatusRolledBack, Err: err})
	}
	return d.finish(ctx, m, Outcome{Status: StatusKept, Err: err})
}

// finish fills in the outcome, logs it, and publishes it.
func (d *Dispatcher) finish(ctx context.Context, m mutation, out Outcome) Outcome {
	out.Op = m.op
	out.ID = m.id
	if m.result != nil {
		out.Todo = m.result()
	}
	d.report(ctx, out)
	return out
}

// skip reports a command that never reached the remote.
func (d *Dispatcher) skip(ctx context.Context, op string, id int64, status Status, reason error) Outcome {
	out := Outcome{Op: op, ID: id, Status: status, Err: reason}
	d.report(ctx, out)
	return out
}

func (d *Dispatcher) report(ctx context.Context, out Outcome) {
	e := d.log.Debug()
	switch out.Status {
	case StatusRolledBack, StatusKept, StatusPartial:
		e = d.log.Warn().Err(out.Err)
	case StatusSkipped, StatusRejected:
		e = e.AnErr("reason", out.Err)
	}
	e.Ctx(ctx).
		Str("op", out.Op).
		Str("status", string(out.Status)).
		Msg("command reconciled")

	if d.bus != nil {
		d.bus.PublishCommandReconciled(eventbus.CommandReconciledPayload{
			Op:     out.Op,
			ID:     out.ID,
			Status: string(out.Status),
			Err:    out.Err,
		})
	}
}

// withCommand tags ctx for logging.
func withCommand(ctx context.Context, commandID string, id int64) context.Context {
	ctx = logging.WithCommandID(ctx, commandID)
	if id != 0 {
		ctx = logging.WithTodoID(ctx, id)
	}
	return ctx
}

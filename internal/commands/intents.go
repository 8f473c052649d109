package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/colonyops/tend/internal/core/validate"
	"github.com/colonyops/tend/internal/engine"
)

// intent is a single user action against the todo list. The same table backs
// the one-shot subcommands and the interactive shell.
type intent struct {
	name    string
	aliases []string
	args    string
	usage   string
	minArgs int
	run     func(ctx context.Context, d *engine.Dispatcher, args []string) (engine.Outcome, error)
}

func (in intent) usageText() string {
	if in.args == "" {
		return in.name
	}
	return in.name + " " + in.args
}

// invoke checks the argument count and runs the intent. Input errors and
// rejected outcomes are returned as errors.
func (in intent) invoke(ctx context.Context, d *engine.Dispatcher, args []string) (engine.Outcome, error) {
	if len(args) < in.minArgs {
		return engine.Outcome{}, fmt.Errorf("usage: %s", in.usageText())
	}

	out, err := in.run(ctx, d, args)
	if err != nil {
		return out, err
	}
	if out.Status == engine.StatusRejected {
		return out, fmt.Errorf("%s: %w", in.name, out.Err)
	}
	return out, nil
}

func byID(fn func(d *engine.Dispatcher, ctx context.Context, id int64) engine.Outcome) func(context.Context, *engine.Dispatcher, []string) (engine.Outcome, error) {
	return func(ctx context.Context, d *engine.Dispatcher, args []string) (engine.Outcome, error) {
		id, err := validate.ParseTodoID(args[0])
		if err != nil {
			return engine.Outcome{}, err
		}
		return fn(d, ctx, id), nil
	}
}

func bulk(fn func(d *engine.Dispatcher, ctx context.Context) engine.Outcome) func(context.Context, *engine.Dispatcher, []string) (engine.Outcome, error) {
	return func(ctx context.Context, d *engine.Dispatcher, _ []string) (engine.Outcome, error) {
		return fn(d, ctx), nil
	}
}

var intents = []intent{
	{
		name:    "add",
		args:    "<title...>",
		usage:   "Add a todo",
		minArgs: 1,
		run: func(ctx context.Context, d *engine.Dispatcher, args []string) (engine.Outcome, error) {
			return d.Add(ctx, strings.Join(args, " ")), nil
		},
	},
	{
		name:    "toggle",
		aliases: []string{"done"},
		args:    "<id>",
		usage:   "Toggle a todo between open and completed",
		minArgs: 1,
		run:     byID((*engine.Dispatcher).ToggleCompleted),
	},
	{
		name:    "rename",
		args:    "<id> <title...>",
		usage:   "Change a todo's title",
		minArgs: 2,
		run: func(ctx context.Context, d *engine.Dispatcher, args []string) (engine.Outcome, error) {
			id, err := validate.ParseTodoID(args[0])
			if err != nil {
				return engine.Outcome{}, err
			}
			return d.Rename(ctx, id, strings.Join(args[1:], " ")), nil
		},
	},
	{
		name:    "up",
		args:    "<id>",
		usage:   "Raise a todo's priority by one",
		minArgs: 1,
		run:     byID((*engine.Dispatcher).IncreasePriority),
	},
	{
		name:    "down",
		args:    "<id>",
		usage:   "Lower a todo's priority by one",
		minArgs: 1,
		run:     byID((*engine.Dispatcher).DecreasePriority),
	},
	{
		name:    "rm",
		aliases: []string{"delete"},
		args:    "<id>",
		usage:   "Delete a todo",
		minArgs: 1,
		run:     byID((*engine.Dispatcher).Delete),
	},
	{
		name:  "clear",
		usage: "Delete every active todo",
		run:   bulk((*engine.Dispatcher).ClearAll),
	},
	{
		name:  "archive",
		usage: "Archive completed todos",
		run:   bulk((*engine.Dispatcher).ArchiveCompleted),
	},
	{
		name:  "complete-all",
		usage: "Mark every todo completed",
		run:   bulk((*engine.Dispatcher).MarkAllCompleted),
	},
}

func lookupIntent(name string) (intent, bool) {
	for _, in := range intents {
		if in.name == name {
			return in, true
		}
		for _, a := range in.aliases {
			if a == name {
				return in, true
			}
		}
	}
	return intent{}, false
}

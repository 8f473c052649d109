package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tend/internal/tend"
)

// TodoCmd registers one subcommand per todo intent. Each run fetches the
// active list, applies the intent, and prints the resulting list.
type TodoCmd struct {
	flags *Flags
	app   *tend.App
}

// NewTodoCmd creates the todo intent commands.
func NewTodoCmd(flags *Flags, app *tend.App) *TodoCmd {
	return &TodoCmd{flags: flags, app: app}
}

// Register adds every intent command to the application.
func (cmd *TodoCmd) Register(app *cli.Command) *cli.Command {
	for _, in := range intents {
		c := &cli.Command{
			Name:      in.name,
			Aliases:   in.aliases,
			Usage:     in.usage,
			UsageText: "tend " + in.usageText(),
			Action:    cmd.action(in),
		}
		if in.args == "<id>" || in.name == "rename" {
			c.ShellComplete = TodoIDCompleter(cmd.app)
		}
		app.Commands = append(app.Commands, c)
	}

	return app
}

func (cmd *TodoCmd) action(in intent) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		p := NewPrinter(c.Root().Writer, c.Root().ErrWriter)

		if _, err := cmd.app.Todos.FetchActive(ctx); err != nil {
			p.Notice("working offline: %v", err)
		}

		out, err := in.invoke(ctx, cmd.app.Todos, c.Args().Slice())
		if err != nil {
			return err
		}
		p.Outcome(out)

		p.List(cmd.app.Todos.All(), cmd.app.Todos.IsProvisional)
		return nil
	}
}

// TodoIDCompleter returns a ShellCompleteFunc that suggests active todo ids.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TodoIDCompleter(app *tend.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		todos, err := app.Todos.FetchActive(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range todos {
			_, _ = fmt.Fprintf(w, "%d:%s\n", t.ID, t.Title)
		}
	}
}

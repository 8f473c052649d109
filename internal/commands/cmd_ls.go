package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/tend"
	"github.com/colonyops/tend/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *tend.App

	// flags
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *tend.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Aliases:   []string{"list"},
		Usage:     "List active todos",
		UsageText: "tend ls [--json]",
		Description: `Fetches the active todos from the remote and prints them ordered by
priority (highest first), then by id.

Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

// Run lists the active todos with the default flags.
func (cmd *LsCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	if _, err := cmd.app.Todos.FetchActive(ctx); err != nil {
		return fmt.Errorf("list todos: %w", err)
	}

	todos := cmd.app.Todos.All()
	out := c.Root().Writer

	if cmd.jsonOutput {
		return writeJSONLines(out, todos, cmd.app.Todos.IsProvisional)
	}

	NewPrinter(out, c.Root().ErrWriter).List(todos, cmd.app.Todos.IsProvisional)
	return nil
}

type ArchivedCmd struct {
	flags *Flags
	app   *tend.App

	jsonOutput bool
}

// NewArchivedCmd creates a new archived command
func NewArchivedCmd(flags *Flags, app *tend.App) *ArchivedCmd {
	return &ArchivedCmd{flags: flags, app: app}
}

// Register adds the archived command to the application
func (cmd *ArchivedCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "archived",
		Usage:     "List archived todos",
		UsageText: "tend archived [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ArchivedCmd) run(ctx context.Context, c *cli.Command) error {
	todos, err := cmd.app.Todos.FetchArchived(ctx)
	if err != nil {
		return fmt.Errorf("list archived todos: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return writeJSONLines(out, todos, nil)
	}

	NewPrinter(out, c.Root().ErrWriter).Archived(todos)
	return nil
}

func writeJSONLines(w io.Writer, todos []todo.Todo, provisional func(int64) bool) error {
	for _, t := range todos {
		info := todoJSON{
			ID:          t.ID,
			Title:       t.Title,
			Priority:    t.Priority,
			Completed:   t.Completed,
			Provisional: provisional != nil && provisional(t.ID),
		}
		if err := iojson.WriteLine(w, info); err != nil {
			return fmt.Errorf("encode todo: %w", err)
		}
	}
	return nil
}

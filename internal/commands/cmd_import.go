package commands

import (
	"context"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tend/internal/core/validate"
	"github.com/colonyops/tend/internal/engine"
	"github.com/colonyops/tend/internal/tend"
	"github.com/colonyops/tend/pkg/iojson"
)

// maxImportFailures stops an import once this many todos failed to reach the remote.
const maxImportFailures = 3

// ImportInput is the JSON document read by tend import.
type ImportInput struct {
	Todos []ImportTodo `json:"todos"`
}

// ImportTodo is a single todo to create.
type ImportTodo struct {
	Title string `json:"title"`
}

// Validate reports every invalid title at once.
func (in ImportInput) Validate() error {
	if len(in.Todos) == 0 {
		return criterio.NewFieldErrors("todos", fmt.Errorf("at least one todo is required"))
	}

	errs := make([]error, 0, len(in.Todos))
	for i, t := range in.Todos {
		errs = append(errs, validate.TodoTitleField(fmt.Sprintf("todos[%d].title", i), t.Title))
	}
	return criterio.ValidateStruct(errs...)
}

// ImportResult reports what happened to one input todo.
type ImportResult struct {
	Title  string `json:"title"`
	ID     int64  `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ImportOutput is written to stdout when the import finishes.
type ImportOutput struct {
	Results []ImportResult `json:"results"`
}

type ImportCmd struct {
	flags *Flags
	app   *tend.App
	fr    *iojson.FileReader[ImportInput]
}

func NewImportCmd(flags *Flags, app *tend.App) *ImportCmd {
	return &ImportCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[ImportInput]{},
	}
}

func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "import",
		Usage: "Create multiple todos from JSON input",
		UsageText: `tend import [options]

Read from stdin:
  echo '{"todos":[{"title":"buy milk"}]}' | tend import

Read from file:
  tend import -f todos.json`,
		Description: `Creates todos one after another from a JSON document.

Every title is validated before anything is sent. Import stops after 3
todos fail to reach the remote; the rest are reported as skipped.

Output is JSON with one result per input todo.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	input, err := cmd.fr.Read(c.Root().Reader)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	output := cmd.importTodos(ctx, input)

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, output)
}

func (cmd *ImportCmd) importTodos(ctx context.Context, input ImportInput) ImportOutput {
	output := ImportOutput{Results: make([]ImportResult, 0, len(input.Todos))}

	failures := 0
	for _, t := range input.Todos {
		if failures >= maxImportFailures {
			output.Results = append(output.Results, ImportResult{
				Title:  t.Title,
				Status: string(engine.StatusSkipped),
			})
			continue
		}

		out := cmd.app.Todos.Add(ctx, t.Title)
		result := ImportResult{
			Title:  t.Title,
			ID:     out.Todo.ID,
			Status: string(out.Status),
		}
		if out.Err != nil {
			result.Error = out.Err.Error()
		}
		if out.Status != engine.StatusConfirmed {
			failures++
		}

		output.Results = append(output.Results, result)
	}

	return output
}

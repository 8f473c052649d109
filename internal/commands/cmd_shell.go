package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tend/internal/tend"
)

const shellPrompt = "tend> "

type ShellCmd struct {
	flags *Flags
	app   *tend.App
}

// NewShellCmd creates a new shell command
func NewShellCmd(flags *Flags, app *tend.App) *ShellCmd {
	return &ShellCmd{flags: flags, app: app}
}

// Register adds the shell command to the application
func (cmd *ShellCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "shell",
		Usage:     "Start an interactive session",
		UsageText: "tend shell",
		Description: `Reads commands line by line and keeps the local list between them, so
changes that could not reach the remote stay visible until the next refresh.

Type 'help' for the list of commands.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ShellCmd) run(ctx context.Context, c *cli.Command) error {
	root := c.Root()
	return cmd.loop(ctx, root.Reader, root.Writer, root.ErrWriter, isInteractive(root.Reader))
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (cmd *ShellCmd) loop(ctx context.Context, in io.Reader, out, errOut io.Writer, prompt bool) error {
	p := NewPrinter(out, errOut)

	if cmd.app.Notices != nil {
		if err := cmd.app.Notices.Release(errOut); err != nil {
			return err
		}
	}

	cmd.refresh(ctx, p)

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			_, _ = fmt.Fprint(out, shellPrompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		fields, err := splitShellWords(scanner.Text())
		if err != nil {
			p.Notice("%v", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}

		name, args := fields[0], fields[1:]
		switch name {
		case "quit", "exit":
			return nil
		case "help", "?":
			writeShellHelp(out)
		case "ls", "list":
			p.List(cmd.app.Todos.All(), cmd.app.Todos.IsProvisional)
		case "refresh":
			cmd.refresh(ctx, p)
		case "archived":
			todos, err := cmd.app.Todos.FetchArchived(ctx)
			if err != nil {
				p.Notice("%v", err)
				continue
			}
			p.Archived(todos)
		default:
			it, ok := lookupIntent(name)
			if !ok {
				p.Notice("unknown command %q, type 'help'", name)
				continue
			}

			outcome, err := it.invoke(ctx, cmd.app.Todos, args)
			if err != nil {
				p.Notice("%v", err)
				continue
			}
			p.Outcome(outcome)
			p.List(cmd.app.Todos.All(), cmd.app.Todos.IsProvisional)
		}
	}
}

func (cmd *ShellCmd) refresh(ctx context.Context, p *Printer) {
	if _, err := cmd.app.Todos.FetchActive(ctx); err != nil {
		p.Notice("working offline: %v", err)
	}
	p.List(cmd.app.Todos.All(), cmd.app.Todos.IsProvisional)
}

func writeShellHelp(w io.Writer) {
	lines := []string{
		"ls                 show the local list",
		"refresh            fetch the list from the remote",
		"archived           show archived todos",
	}
	for _, it := range intents {
		lines = append(lines, fmt.Sprintf("%-18s %s", it.usageText(), strings.ToLower(it.usage)))
	}
	lines = append(lines, "quit               leave the shell")

	for _, l := range lines {
		_, _ = fmt.Fprintln(w, "  "+l)
	}
}

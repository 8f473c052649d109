package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/colonyops/tend/internal/core/styles"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/engine"
)

// Printer renders todo lists and command outcomes. Styling is applied only
// when the output is a terminal.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	styled bool
}

// NewPrinter creates a Printer writing lists to out and notices to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut, styled: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// todoJSON is the JSON output format for tend ls --json.
type todoJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	Provisional bool   `json:"provisional,omitempty"`
}

// List writes the count header followed by one line per todo in the order given.
func (p *Printer) List(todos []todo.Todo, provisional func(int64) bool) {
	header := fmt.Sprintf("Total Todos: %d", len(todos))
	_, _ = fmt.Fprintln(p.out, p.render(styles.HeaderStyle, header))
	p.lines(todos, provisional)
}

// Archived writes the archived todos under their own header.
func (p *Printer) Archived(todos []todo.Todo) {
	header := fmt.Sprintf("Archived Todos: %d", len(todos))
	_, _ = fmt.Fprintln(p.out, p.render(styles.HeaderStyle, header))
	p.lines(todos, nil)
}

func (p *Printer) lines(todos []todo.Todo, provisional func(int64) bool) {
	idWidth, titleWidth := 0, 0
	for _, t := range todos {
		idWidth = max(idWidth, len(fmt.Sprint(t.ID)))
		titleWidth = max(titleWidth, utf8.RuneCountInString(t.Title))
	}

	for _, t := range todos {
		local := provisional != nil && provisional(t.ID)
		title := t.Title + strings.Repeat(" ", titleWidth-utf8.RuneCountInString(t.Title))

		icon := styles.IconPending
		prio := p.render(priorityStyle(t), fmt.Sprintf("p%d", t.Priority))
		switch {
		case t.Completed:
			icon = p.render(styles.TextSuccessStyle, styles.IconDone)
			title = p.render(styles.TodoDoneStyle, title)
		case local:
			icon = p.render(styles.TodoLocalStyle, styles.IconLocal)
			title = p.render(styles.TodoLocalStyle, title)
		default:
			title = p.render(styles.TodoTitleStyle, title)
		}
		if local {
			prio = p.render(styles.TextMutedStyle, "local")
		}

		id := fmt.Sprintf("%*d", idWidth, t.ID)
		_, _ = fmt.Fprintf(p.out, "  %s  %s %s  %s\n", p.render(styles.TextMutedStyle, id), icon, title, prio)
	}
}

func priorityStyle(t todo.Todo) lipgloss.Style {
	if t.Priority >= todo.MaxPriority-2 {
		return styles.PriorityHighStyle
	}
	return styles.PriorityStyle
}

// Outcome writes a notice for outcomes the user would otherwise not see.
// Remote failures are surfaced through the notification router instead.
func (p *Printer) Outcome(out engine.Outcome) {
	target := out.Op
	if out.ID != 0 {
		target = fmt.Sprintf("%s #%d", out.Op, out.ID)
	}

	switch out.Status {
	case engine.StatusLocal:
		msg := fmt.Sprintf("%s %s applied locally; the remote has not seen this todo", styles.IconLocal, target)
		_, _ = fmt.Fprintln(p.errOut, p.render(styles.TextWarningStyle, msg))
	case engine.StatusSkipped:
		msg := fmt.Sprintf("%s %s skipped: %s", styles.IconWarn, target, skipReason(out.Err))
		_, _ = fmt.Fprintln(p.errOut, p.render(styles.TextMutedStyle, msg))
	}
}

func skipReason(err error) string {
	switch {
	case err == nil:
		return "nothing to do"
	case errors.Is(err, engine.ErrNotFound):
		return "no such todo"
	default:
		return err.Error()
	}
}

// Notice writes a warning line to the error output.
func (p *Printer) Notice(format string, args ...any) {
	msg := fmt.Sprintf(styles.IconWarn+" "+format, args...)
	_, _ = fmt.Fprintln(p.errOut, p.render(styles.TextWarningStyle, msg))
}

package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tend/internal/core/doctor"
	"github.com/colonyops/tend/internal/core/styles"
	"github.com/colonyops/tend/internal/tend"
	"github.com/colonyops/tend/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *tend.App
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, app *tend.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check the configuration, local database, and remote",
		UsageText: "tend doctor [--format text|json] [--autofix]",
		Description: `Validates the config file, opens the SQLite database in the data
directory, and lists active todos on the remote.

Exits non-zero when any check fails. With --autofix a corrupt database is
moved aside so the next open starts fresh.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "repair what can be repaired",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.format != "text" && cmd.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", cmd.format)
	}

	report := doctor.NewReport(cmd.app.Doctor.RunChecks(ctx, cmd.flags.ConfigPath, cmd.autofix))

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, report); err != nil {
			return err
		}
	} else {
		cmd.writeText(c.Root().ErrWriter, report)
	}

	if !report.Healthy {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) writeText(w io.Writer, report doctor.Report) {
	_, _ = fmt.Fprintf(w, "\n%s\n%s\n\n",
		styles.TextPrimaryBoldStyle.Render("tend doctor"),
		styles.TextMutedStyle.Render(strings.Repeat("─", 40)),
	)

	for _, result := range report.Checks {
		_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render(result.Name))
		for _, item := range result.Items {
			line := "  " + statusIcon(item.Status) + " " + item.Label
			if item.Detail != "" {
				line += " " + styles.TextMutedStyle.Render(item.Detail)
			}
			_, _ = fmt.Fprintln(w, line)
		}
		_, _ = fmt.Fprintln(w)
	}

	s := report.Summary
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", s.Warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", s.Failed)),
	)

	if !cmd.autofix && s.Fixable > 0 {
		hint := fmt.Sprintf("Run 'tend doctor --autofix' to fix %d issue(s)", s.Fixable)
		_, _ = fmt.Fprintf(w, "\n%s\n", styles.TextMutedStyle.Render(hint))
	}
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return styles.TextSuccessStyle.Render(styles.IconDone)
	case doctor.StatusWarn:
		return styles.TextWarningStyle.Render(styles.IconWarn)
	default:
		return styles.TextErrorStyle.Render(styles.IconFail)
	}
}

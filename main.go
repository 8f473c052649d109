package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tend/internal/commands"
	"github.com/colonyops/tend/internal/core/config"
	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/core/notify"
	"github.com/colonyops/tend/internal/core/styles"
	"github.com/colonyops/tend/internal/remote/httpremote"
	"github.com/colonyops/tend/internal/tend"
	"github.com/colonyops/tend/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() reads them
	// from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

const eventBufferSize = 256

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		tendApp   = &tend.App{}
		busCancel context.CancelFunc
		busDone   chan struct{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tend",
		Usage:     "Keep a prioritized todo list in sync with a remote store",
		UsageText: "tend [global options] command [command options]",
		Description: `Tend applies every change to the local list immediately, sends it to the
remote todo store, and then confirms or undoes it depending on the answer.

Run 'tend serve' to start the reference store, then 'tend add <title>' or
'tend shell' from another terminal.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TEND_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/tend.log)",
				Sources:     cli.EnvVars("TEND_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TEND_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TEND_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "remote",
				Aliases:     []string{"r"},
				Usage:       "base URL of the remote todo store (overrides remote.base_url)",
				Sources:     cli.EnvVars("TEND_REMOTE"),
				Destination: &flags.Remote,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "tend.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			if flags.Remote != "" {
				cfg.Remote.BaseURL = flags.Remote
				if err := cfg.Validate(); err != nil {
					return ctx, fmt.Errorf("invalid --remote: %w", err)
				}
			}
			flags.Config = cfg

			// Validation guarantees the theme exists.
			palette, _ := styles.GetPalette(cfg.UI.Theme)
			styles.SetTheme(palette)

			bus := eventbus.New(eventBufferSize)
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
			eventbus.NewNotificationRouter(bus).Register()
			bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
				if p.Level == notify.LevelInfo {
					log.Debug().Str("notification", p.Message).Msg("notification")
					return
				}
				msg := fmt.Sprintf("%s %s", styles.IconWarn, p.Message)
				_, _ = fmt.Fprintln(tendApp.Notices, styles.TextWarningStyle.Render(msg))
			})

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			busDone = make(chan struct{})
			go func() {
				defer close(busDone)
				bus.Start(busCtx)
			}()

			remote := httpremote.New(cfg.Remote.BaseURL, cfg.Remote.Timeout, log.Logger)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*tendApp = *tend.NewApp(cfg, remote, bus, log.Logger)

			log.Debug().
				Str("remote", cfg.Remote.BaseURL).
				Str("data_dir", cfg.DataDir).
				Msg("tend started")

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Deliver pending notifications before exiting
			if busCancel != nil {
				busCancel()
				<-busDone
			}
			if tendApp.Notices != nil {
				if err := tendApp.Notices.Flush(c.Root().ErrWriter); err != nil {
					log.Error().Err(err).Msg("failed to write notifications")
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewLsCmd(flags, tendApp).Register(app)
	app = commands.NewTodoCmd(flags, tendApp).Register(app)
	app = commands.NewArchivedCmd(flags, tendApp).Register(app)
	app = commands.NewImportCmd(flags, tendApp).Register(app)
	app = commands.NewShellCmd(flags, tendApp).Register(app)
	app = commands.NewServeCmd(flags, tendApp).Register(app)
	app = commands.NewDoctorCmd(flags, tendApp).Register(app)

	// Show the list when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'tend --help' for usage", c.Args().First())
		}
		return commands.NewLsCmd(flags, tendApp).Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

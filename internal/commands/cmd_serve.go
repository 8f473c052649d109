package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/data/stores"
	"github.com/colonyops/tend/internal/profiler"
	"github.com/colonyops/tend/internal/server"
	"github.com/colonyops/tend/internal/tend"
)

type ServeCmd struct {
	flags *Flags
	app   *tend.App

	addr      string
	pprofAddr string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *tend.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the reference todo server",
		UsageText: "tend serve [--addr host:port] [--pprof-addr host:port]",
		Description: `Serves the todo HTTP API backed by SQLite in the data directory.

Other tend commands talk to it through remote.base_url (or --remote).
Stops gracefully on SIGINT or SIGTERM.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr from config)",
				Sources:     cli.EnvVars("TEND_SERVER_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "pprof-addr",
				Usage:       "serve pprof endpoints on this address (disabled when empty)",
				Sources:     cli.EnvVars("TEND_PPROF_ADDR"),
				Destination: &cmd.pprofAddr,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config

	addr := cmd.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	database, err := tend.OpenDatabase(cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.pprofAddr != "" {
		prof := profiler.New(cmd.pprofAddr, logging.Component("profiler"))
		if err := prof.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := prof.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to stop profiler")
			}
		}()
	}

	srv := server.New(stores.NewTodoStore(database), logging.Component("server"))

	_, _ = fmt.Fprintf(c.Root().ErrWriter, "serving todos on http://%s (data: %s)\n", addr, cfg.DataDir)
	return srv.ListenAndServe(ctx, addr)
}

// Package tend assembles the engine, remote and event bus into the App the
// CLI commands operate on.
package tend

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/tend/internal/core/config"
	"github.com/colonyops/tend/internal/core/eventbus"
	"github.com/colonyops/tend/internal/core/state"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/engine"
	"github.com/colonyops/tend/pkg/utils"
)

// App is the central entry point for all tend operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Todos  *engine.Dispatcher
	Doctor *DoctorService

	Remote todo.Remote
	Bus    *eventbus.EventBus
	Config *config.Config

	// Notices collects user-facing notifications. One-shot commands flush it
	// on exit; the shell releases it to write notifications as they arrive.
	Notices *utils.DeferredWriter
}

// NewApp constructs an App from explicit dependencies. The local state store
// starts empty; commands populate it with Todos.FetchActive.
func NewApp(cfg *config.Config, remote todo.Remote, bus *eventbus.EventBus, log zerolog.Logger) *App {
	opts := engine.DefaultOptions()
	opts.MarkAllConcurrency = cfg.Engine.MarkAllConcurrency

	return &App{
		Todos:   engine.New(state.New(bus), remote, bus, log, opts),
		Doctor:  NewDoctorService(cfg, remote),
		Remote:  remote,
		Bus:     bus,
		Config:  cfg,
		Notices: &utils.DeferredWriter{},
	}
}

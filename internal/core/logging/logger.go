// Package logging carries command context into zerolog events.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names added to log events.
const (
	ComponentKey = "cmp"
	CommandIDKey = "command_id"
	TodoIDKey    = "todo_id"
)

// Component returns the global logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return log.With().Str(ComponentKey, name).Logger()
}

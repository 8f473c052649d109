package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies the command and todo ids tagged on an event's context
// into the event.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	if commandID := GetCommandID(ctx); commandID != "" {
		e.Str(CommandIDKey, commandID)
	}
	if id, ok := GetTodoID(ctx); ok {
		e.Int64(TodoIDKey, id)
	}
}

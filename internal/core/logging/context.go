package logging

import "context"

type contextKey string

const (
	commandIDKey contextKey = CommandIDKey
	todoIDKey    contextKey = TodoIDKey
)

// WithCommandID tags the context with the id of the command being handled.
func WithCommandID(ctx context.Context, commandID string) context.Context {
	return context.WithValue(ctx, commandIDKey, commandID)
}

// WithTodoID tags the context with the todo a command targets.
func WithTodoID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, todoIDKey, id)
}

// GetCommandID retrieves the command ID from the context.
// Returns empty string if not present.
func GetCommandID(ctx context.Context) string {
	if id, ok := ctx.Value(commandIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTodoID retrieves the todo ID from the context.
func GetTodoID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(todoIDKey).(int64)
	return id, ok
}

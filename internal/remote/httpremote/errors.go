package httpremote

import (
	"fmt"
	"net/http"

	"github.com/colonyops/tend/internal/core/todo"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Is makes every StatusError match todo.ErrRemote, and 404 responses
// match todo.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case todo.ErrRemote:
		return true
	case todo.ErrNotFound:
		return e.NotFound()
	}
	return false
}

// NotFound reports whether the remote did not know the todo.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

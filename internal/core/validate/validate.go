// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/tend/internal/core/todo"
)

// TodoTitle validates a todo title.
func TodoTitle(title string) error {
	return todo.ValidateTitle(title)
}

// TodoTitleField returns a criterio validator for todo titles.
func TodoTitleField(field, title string) error {
	return criterio.Run(field, title, TodoTitle)
}

// TodoID validates that id is a positive todo id.
func TodoID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("id must be positive, got %d", id)
	}
	return nil
}

// TodoIDField returns a criterio validator for todo ids.
func TodoIDField(field string, id int64) error {
	return criterio.Run(field, id, TodoID)
}

// ParseTodoID parses a todo id given on the command line.
func ParseTodoID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	if err := TodoID(id); err != nil {
		return 0, err
	}
	return id, nil
}

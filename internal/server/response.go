package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/data/stores"
)

// Ack is the body of successful mutations.
type Ack struct {
	Text string `json:"text"`
}

// ErrorDetail describes one invalid request field.
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

func respondAck(c *gin.Context, text string) {
	c.JSON(http.StatusOK, Ack{Text: text})
}

func respondList(c *gin.Context, todos []todo.Todo) {
	if todos == nil {
		todos = []todo.Todo{}
	}
	c.JSON(http.StatusOK, todos)
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondError maps store and validation errors onto status codes.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var fieldErrs criterio.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		details := make([]ErrorDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, ErrorDetail{Field: fe.Field, Message: fe.Err.Error()})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: details})
	case errors.Is(err, todo.ErrTitleEmpty),
		errors.Is(err, todo.ErrTitleTooLong),
		errors.Is(err, stores.ErrPriorityOutOfRange):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, todo.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "todo not found"})
	case stores.IsBusyError(err):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database busy"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

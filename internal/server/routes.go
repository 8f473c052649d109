package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/core/validate"
)

// WelcomeText is returned by GET /.
const WelcomeText = "Welcome to tend"

type createRequest struct {
	Title    string `json:"title"`
	Priority *int   `json:"priority"`
}

type idRequest struct {
	ID int64 `json:"id"`
}

type renameRequest struct {
	ID       int64  `json:"id"`
	NewTitle string `json:"new_title"`
}

func (s *Server) routes() {
	s.router.GET("/", func(c *gin.Context) {
		respondAck(c, WelcomeText)
	})

	api := s.router.Group("/api/todos")
	api.GET("", s.listActive)
	api.POST("", s.create)
	api.GET("/complete", s.listArchived)
	api.POST("/complete", s.toggle)
	api.POST("/rename", s.rename)
	api.POST("/delete", s.delete)
	api.POST("/increase_priority", s.increasePriority)
	api.POST("/decrease_priority", s.decreasePriority)
	api.POST("/clear", s.clear)
	api.POST("/archive_completed", s.archiveCompleted)
}

func (s *Server) listActive(c *gin.Context) {
	todos, err := s.store.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, todos)
}

func (s *Server) listArchived(c *gin.Context) {
	todos, err := s.store.ListArchived(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, todos)
}

func (s *Server) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := validate.TodoTitleField("title", req.Title); err != nil {
		respondError(c, err)
		return
	}

	priority := todo.MinPriority
	if req.Priority != nil {
		priority = *req.Priority
	}

	created, err := s.store.CreateWithPriority(c.Request.Context(), req.Title, priority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// bindID decodes and validates an {"id": n} body.
func bindID(c *gin.Context) (int64, bool) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return 0, false
	}
	if err := validate.TodoIDField("id", req.ID); err != nil {
		respondError(c, err)
		return 0, false
	}
	return req.ID, true
}

func (s *Server) toggle(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := s.store.ToggleComplete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, fmt.Sprintf("Todo with id %d toggled", id))
}

func (s *Server) rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	err := criterio.ValidateStruct(
		validate.TodoIDField("id", req.ID),
		validate.TodoTitleField("new_title", req.NewTitle),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.Rename(c.Request.Context(), req.ID, req.NewTitle); err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, fmt.Sprintf("Todo with id %d renamed", req.ID))
}

func (s *Server) delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, fmt.Sprintf("Todo with id %d deleted successfully", id))
}

func (s *Server) increasePriority(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := s.store.IncreasePriority(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, fmt.Sprintf("Todo with id %d priority increased", id))
}

func (s *Server) decreasePriority(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := s.store.DecreasePriority(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, fmt.Sprintf("Todo with id %d priority decreased", id))
}

func (s *Server) clear(c *gin.Context) {
	if err := s.store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, "All todos have been deleted")
}

func (s *Server) archiveCompleted(c *gin.Context) {
	n, err := s.store.ArchiveCompletedCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondAck(c, fmt.Sprintf("Archived %d completed todo(s)", n))
}

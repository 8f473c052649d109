// Package httpremote implements todo.Remote over the reference server's
// JSON HTTP API.
package httpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/core/todo"
)

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 512

// Client talks to a remote todo store.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ todo.Remote = (*Client)(nil)

// New creates a Client for baseURL. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str(logging.ComponentKey, "httpremote").Logger(),
	}
}

type idRequest struct {
	ID int64 `json:"id"`
}

type createRequest struct {
	Title string `json:"title"`
}

type renameRequest struct {
	ID       int64  `json:"id"`
	NewTitle string `json:"new_title"`
}

// ack is the body of every successful mutation other than create.
type ack struct {
	Text string `json:"text"`
}

func (c *Client) ListActive(ctx context.Context) ([]todo.Todo, error) {
	var out []todo.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListArchived(ctx context.Context) ([]todo.Todo, error) {
	var out []todo.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos/complete", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, title string) (todo.Todo, error) {
	var out todo.Todo
	if err := c.do(ctx, http.MethodPost, "/api/todos", createRequest{Title: title}, &out); err != nil {
		return todo.Todo{}, err
	}
	return out, nil
}

func (c *Client) ToggleComplete(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/todos/complete", idRequest{ID: id})
}

func (c *Client) Rename(ctx context.Context, id int64, title string) error {
	return c.post(ctx, "/api/todos/rename", renameRequest{ID: id, NewTitle: title})
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/todos/delete", idRequest{ID: id})
}

func (c *Client) IncreasePriority(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/todos/increase_priority", idRequest{ID: id})
}

func (c *Client) DecreasePriority(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/todos/decrease_priority", idRequest{ID: id})
}

func (c *Client) Clear(ctx context.Context) error {
	return c.post(ctx, "/api/todos/clear", struct{}{})
}

func (c *Client) ArchiveCompleted(ctx context.Context) error {
	return c.post(ctx, "/api/todos/archive_completed", struct{}{})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var a ack
	return c.do(ctx, http.MethodPost, path, body, &a)
}

// do sends one request and decodes the JSON response into out. Every
// failure is wrapped with todo.ErrRemote.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	requestID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode %s request: %w", todo.ErrRemote, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", todo.ErrRemote, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Ctx(ctx).Err(err).
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Msg("remote request failed")
		return fmt.Errorf("%w: %s %s: %w", todo.ErrRemote, method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close response body")
		}
	}()

	c.log.Debug().Ctx(ctx).
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %w", todo.ErrRemote, method, path, err)
	}
	return nil
}

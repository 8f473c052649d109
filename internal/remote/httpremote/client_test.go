package httpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tend/internal/core/logging"
	"github.com/colonyops/tend/internal/core/todo"
)

type recorded struct {
	Method    string
	Path      string
	Body      map[string]any
	RequestID string
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	response any
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method:    r.Method,
		Path:      r.URL.Path,
		Body:      body,
		RequestID: r.Header.Get(RequestIDHeader),
	})
	status, response := f.status, f.response
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func (f *fakeServer) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, status int, response any) (*Client, *fakeServer) {
	t.Helper()
	fake := &fakeServer{status: status, response: response}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second, zerolog.Nop()), fake
}

func TestClient_ListActive(t *testing.T) {
	want := []todo.Todo{
		{ID: 2, Title: "b", Priority: 5},
		{ID: 1, Title: "a", Priority: 1, Completed: true},
	}
	c, fake := newTestClient(t, http.StatusOK, want)

	got, err := c.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/todos", req.Path)
	_, err = uuid.Parse(req.RequestID)
	assert.NoError(t, err, "request id should be a uuid")
}

func TestClient_ListArchived(t *testing.T) {
	c, fake := newTestClient(t, http.StatusOK, []todo.Todo{{ID: 9, Title: "old", Priority: 1, Completed: true}})

	got, err := c.ListArchived(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "/api/todos/complete", fake.last(t).Path)
}

func TestClient_Create(t *testing.T) {
	c, fake := newTestClient(t, http.StatusCreated, todo.Todo{ID: 4, Title: "new", Priority: 1})

	got, err := c.Create(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, todo.Todo{ID: 4, Title: "new", Priority: 1}, got)

	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/todos", req.Path)
	assert.Equal(t, map[string]any{"title": "new"}, req.Body)
}

func TestClient_Mutations(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		path string
		body map[string]any
	}{
		{
			name: "toggle",
			call: func(c *Client) error { return c.ToggleComplete(context.Background(), 3) },
			path: "/api/todos/complete",
			body: map[string]any{"id": float64(3)},
		},
		{
			name: "rename",
			call: func(c *Client) error { return c.Rename(context.Background(), 3, "renamed") },
			path: "/api/todos/rename",
			body: map[string]any{"id": float64(3), "new_title": "renamed"},
		},
		{
			name: "delete",
			call: func(c *Client) error { return c.Delete(context.Background(), 3) },
			path: "/api/todos/delete",
			body: map[string]any{"id": float64(3)},
		},
		{
			name: "increase",
			call: func(c *Client) error { return c.IncreasePriority(context.Background(), 3) },
			path: "/api/todos/increase_priority",
			body: map[string]any{"id": float64(3)},
		},
		{
			name: "decrease",
			call: func(c *Client) error { return c.DecreasePriority(context.Background(), 3) },
			path: "/api/todos/decrease_priority",
			body: map[string]any{"id": float64(3)},
		},
		{
			name: "clear",
			call: func(c *Client) error { return c.Clear(context.Background()) },
			path: "/api/todos/clear",
			body: map[string]any{},
		},
		{
			name: "archive",
			call: func(c *Client) error { return c.ArchiveCompleted(context.Background()) },
			path: "/api/todos/archive_completed",
			body: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t, http.StatusOK, map[string]string{"text": "ok"})

			require.NoError(t, tt.call(c))

			req := fake.last(t)
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, tt.body, req.Body)
		})
	}
}

func TestClient_StatusErrorIsRemote(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, map[string]string{"error": "todo not found"})

	err := c.ToggleComplete(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, todo.ErrRemote)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.NotFound())
	assert.Contains(t, statusErr.Error(), "todo not found")
}

func TestClient_UnreachableIsRemote(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, zerolog.Nop())
	_, err := c.ListActive(context.Background())
	assert.ErrorIs(t, err, todo.ErrRemote)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(srv.URL, 20*time.Millisecond, zerolog.Nop())
	err := c.Clear(context.Background())
	assert.ErrorIs(t, err, todo.ErrRemote)
}

func TestClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second, zerolog.Nop())
	_, err := c.ListActive(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, todo.ErrRemote))
}

func TestClient_LogsUnderComponentKey(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{status: http.StatusOK, response: []todo.Todo{}})
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	c := New(srv.URL, time.Second, zerolog.New(&buf).Level(zerolog.DebugLevel))

	_, err := c.ListActive(context.Background())
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "httpremote", entry[logging.ComponentKey])
	assert.Equal(t, "remote request", entry["message"])
	assert.NotContains(t, entry, "component")
}

// Package client calls the todo server functions over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johann/leptos-todo/internal/config"
	"github.com/johann/leptos-todo/internal/storage"
)

// Client is an HTTP client for the todo server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// New creates a new client from config
func New(cfg *config.ClientConfig) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL not configured. Run 'todo login <server-url>'")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetTodos returns every todo in id order.
func (c *Client) GetTodos(ctx context.Context) ([]storage.TodoItem, error) {
	var todos []storage.TodoItem
	if err := c.call(ctx, "get_todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// SearchTodos returns the todos whose task contains search.
func (c *Client) SearchTodos(ctx context.Context, search string) ([]storage.TodoItem, error) {
	var todos []storage.TodoItem
	if err := c.call(ctx, "search_todos", map[string]string{"search": search}, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// AddTodo creates a todo and returns it with its assigned id.
func (c *Client) AddTodo(ctx context.Context, task string) (storage.TodoItem, error) {
	var item storage.TodoItem
	err := c.call(ctx, "add_todo", map[string]string{"todo": task}, &item)
	return item, err
}

// DeleteTodo removes one todo.
func (c *Client) DeleteTodo(ctx context.Context, id uint32) error {
	return c.call(ctx, "delete_todo", map[string]uint32{"id": id}, nil)
}

// ToggleTodo flips the done flag of one todo.
func (c *Client) ToggleTodo(ctx context.Context, id uint32) error {
	return c.call(ctx, "toggle_todo", map[string]uint32{"id": id}, nil)
}

func (c *Client) DeleteAll(ctx context.Context) error {
	return c.call(ctx, "delete_all", nil, nil)
}

func (c *Client) MarkAllDone(ctx context.Context) error {
	return c.call(ctx, "mark_all_done", nil, nil)
}

func (c *Client) MarkAllUndone(ctx context.Context) error {
	return c.call(ctx, "mark_all_undone", nil, nil)
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, "GET", "/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return nil
}

// call posts args as JSON to the named server function and decodes the
// result into out when out is non-nil.
func (c *Client) call(ctx context.Context, fn string, args, out any) error {
	var body io.Reader = http.NoBody
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, "POST", "/api/"+fn, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", fn, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

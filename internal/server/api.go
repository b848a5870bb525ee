package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/johann/leptos-todo/internal/storage"
	"github.com/johann/leptos-todo/internal/view"
)

// serverFunc handles one server function call and returns its JSON result.
type serverFunc func(c *gin.Context) (any, error)

// badRequest marks errors caused by the caller's arguments.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

type idArgs struct {
	ID uint32 `form:"id" json:"id" binding:"required"`
}

type addArgs struct {
	Todo string `form:"todo" json:"todo" binding:"required"`
}

type searchArgs struct {
	Search string `form:"search" json:"search"`
}

// serverFn wraps fn with metrics and response negotiation. Calls from
// scripts get JSON; plain browser form posts get redirected back to the
// page they came from, so the UI works without JavaScript.
func (s *Server) serverFn(name string, fn serverFunc) gin.HandlerFunc {
	readOnly := name == "get_todos" || name == "search_todos"
	return func(c *gin.Context) {
		result, err := fn(c)
		if err != nil {
			s.metrics.serverFnCalls.WithLabelValues(name, "error").Inc()
			s.fail(c, err)
			return
		}
		s.metrics.serverFnCalls.WithLabelValues(name, "ok").Inc()
		if !readOnly {
			s.refreshCounts(c.Request.Context())
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusSeeOther, backTo(c))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) getTodos(c *gin.Context) (any, error) {
	ctx := c.Request.Context()
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	return s.storage.ListTodos(ctx)
}

func (s *Server) searchTodos(c *gin.Context) (any, error) {
	var args searchArgs
	if err := c.ShouldBind(&args); err != nil {
		return nil, badRequest{err}
	}
	return s.storage.SearchTodos(c.Request.Context(), args.Search)
}

func (s *Server) addTodo(c *gin.Context) (any, error) {
	var args addArgs
	if err := c.ShouldBind(&args); err != nil {
		return nil, badRequest{err}
	}
	ctx := c.Request.Context()
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	return s.storage.AddTodo(ctx, args.Todo)
}

func (s *Server) deleteTodo(c *gin.Context) (any, error) {
	var args idArgs
	if err := c.ShouldBind(&args); err != nil {
		return nil, badRequest{err}
	}
	return nil, s.storage.DeleteTodo(c.Request.Context(), args.ID)
}

func (s *Server) toggleTodo(c *gin.Context) (any, error) {
	var args idArgs
	if err := c.ShouldBind(&args); err != nil {
		return nil, badRequest{err}
	}
	return nil, s.storage.ToggleTodo(c.Request.Context(), args.ID)
}

func (s *Server) deleteAll(c *gin.Context) (any, error) {
	return nil, s.storage.DeleteAll(c.Request.Context())
}

func (s *Server) markAllDone(c *gin.Context) (any, error) {
	return nil, s.storage.MarkAllDone(c.Request.Context())
}

func (s *Server) markAllUndone(c *gin.Context) (any, error) {
	return nil, s.storage.MarkAllUndone(c.Request.Context())
}

// delay simulates a slow backend when TODO_API_DELAY is set.
func (s *Server) delay(ctx context.Context) error {
	if s.config.APIDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.config.APIDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if wantsHTML(c) {
		s.renderErrors(c, []view.AppError{{Status: status, Message: err.Error()}})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, storage.ErrEmptyTask):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// wantsHTML reports whether the request is a plain browser navigation or
// form post rather than a script call.
func wantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// backTo returns the same-host page a form was posted from, or "/".
func backTo(c *gin.Context) string {
	ref := c.GetHeader("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request.Host) {
		return "/"
	}
	// Browsers read "//host" and "/\host" as protocol-relative URLs.
	if u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, "/\\") {
		return "/"
	}
	return u.RequestURI()
}

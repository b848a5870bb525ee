package view

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
)

// AppError is an error shown to the user with an HTTP status.
type AppError struct {
	Status  int
	Message string
}

// NotFound is rendered for unknown routes.
var NotFound = AppError{Status: http.StatusNotFound, Message: "Not Found"}

func (e AppError) Error() string {
	return e.Message
}

// StatusOf returns the status to send for a set of errors: the first one's.
func StatusOf(errs []AppError) int {
	if len(errs) == 0 {
		return http.StatusInternalServerError
	}
	return errs[0].Status
}

// ErrorPage lists every error with its status code.
func ErrorPage(errs []AppError) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="container mt-3">`)
		if len(errs) > 1 {
			h.raw(`<h1>Errors</h1>`)
		} else {
			h.raw(`<h1>Error</h1>`)
		}
		for _, e := range errs {
			h.raw(`<h2>`)
			h.text(strconv.Itoa(e.Status))
			h.raw(`</h2><p>Error: `)
			h.text(e.Message)
			h.raw(`</p>`)
		}
		h.raw(`<a class="btn btn-outline-secondary" href="/">Back</a></div>`)
		return h.err
	})
}

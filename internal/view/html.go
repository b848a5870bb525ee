// Package view renders the application's pages as templ components.
package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// html accumulates the first write error so components read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *html) render(c templ.Component, ctx context.Context) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func itoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}

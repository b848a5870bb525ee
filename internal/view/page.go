package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// PageData is shared by every page.
type PageData struct {
	Title      string
	Stylesheet string
	Script     string
	// ReloadPort enables the live reload script when non-zero.
	ReloadPort int
}

// Page wraps body in the document shell.
func Page(p PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en" class="theme-dark"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		// id=leptos marks the stylesheet the reload channel swaps in place.
		h.raw(`<link rel="stylesheet" id="leptos"`)
		h.attr("href", p.Stylesheet)
		h.raw(`>`)
		if p.Script != "" {
			h.raw(`<script defer`)
			h.attr("src", p.Script)
			h.raw(`></script>`)
		}
		h.raw(`<title>`)
		h.text(p.Title)
		h.raw(`</title>`)
		if p.ReloadPort > 0 {
			h.raw(`<script>`)
			h.raw(reloadScript(p.ReloadPort))
			h.raw(`</script>`)
		}
		h.raw(`</head><body><main>`)
		h.render(body, ctx)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

func reloadScript(port int) string {
	return `(function(){` +
		`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.hostname+":` + strconv.Itoa(port) + `/live_reload");` +
		`ws.onmessage=function(ev){var m=JSON.parse(ev.data);` +
		`if(m.css){var l=document.getElementById("leptos");if(l){l.href=m.css+"?v="+Date.now();return;}}` +
		`location.reload();};` +
		`ws.onclose=function(){console.warn("live reload disconnected");};` +
		`})();`
}

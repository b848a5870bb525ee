package leptostodo

import (
	"embed"
)

// Site contains the default site package written by `leptos-todo site build`.
// Files under site/pkg named app.* are renamed to the configured output name.
//
//go:embed all:site
var Site embed.FS

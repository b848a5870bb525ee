package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/johann/leptos-todo/internal/view"
)

func (s *Server) pageData() view.PageData {
	p := view.PageData{
		Title:      s.config.Title,
		Stylesheet: s.layout.StylesheetHref(),
		Script:     s.layout.ScriptHref(),
	}
	if s.watch {
		p.ReloadPort = s.config.ReloadPort
	}
	return p
}

func (s *Server) render(c *gin.Context, status int, body templ.Component) {
	templ.Handler(view.Page(s.pageData(), body), templ.WithStatus(status)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) renderErrors(c *gin.Context, errs []view.AppError) {
	s.render(c, view.StatusOf(errs), view.ErrorPage(errs))
}

func (s *Server) handleHome(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	todos, err := s.storage.SearchTodos(c.Request.Context(), search)
	s.render(c, http.StatusOK, view.HomePage(view.Home{
		Todos:  todos,
		Err:    err,
		Search: search,
	}))
}

// handleNoRoute serves a file from the site root, or the not found page.
func (s *Server) handleNoRoute(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		if s.serveAsset(c) {
			return
		}
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || !wantsHTML(c) && c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.renderErrors(c, []view.AppError{view.NotFound})
}

func (s *Server) serveAsset(c *gin.Context) bool {
	f, info, err := s.layout.Open(c.Request.URL.Path)
	if err != nil {
		return false
	}
	defer f.Close()

	etag, err := s.etags.Get(f.Name(), info, func() ([]byte, error) {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		_, err = f.Seek(0, io.SeekStart)
		return data, err
	})
	if err != nil {
		return false
	}

	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)

	if c.Writer.Status() == http.StatusNotModified {
		s.metrics.assetNotMod.Inc()
	} else if n := c.Writer.Size(); n > 0 {
		s.metrics.assetBytes.Add(float64(n))
	}
	return true
}

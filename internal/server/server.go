package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/johann/leptos-todo/internal/config"
	"github.com/johann/leptos-todo/internal/reload"
	"github.com/johann/leptos-todo/internal/site"
	"github.com/johann/leptos-todo/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Options select how the server runs.
type Options struct {
	// Watch enables the live reload channel on the reload port and watches
	// the site root for changes.
	Watch bool
}

// Server serves the todo application
type Server struct {
	config      *config.ServerConfig
	storage     *storage.Storage
	router      *gin.Engine
	layout      site.Layout
	watch       bool
	metrics     *Metrics
	etags       *site.ETagCache
	rateLimiter *RateLimiter
	apiLimiter  *APILimiter
	hub         *reload.Hub
}

// New verifies the site layout, opens the database and builds the router.
// A layout that does not match the configuration is a startup error.
func New(cfg *config.ServerConfig, opts Options) (*Server, error) {
	layout := cfg.Layout()
	if err := layout.Verify(); err != nil {
		return nil, fmt.Errorf("invalid site layout: %w", err)
	}
	if opts.Watch && cfg.ReloadPort == 0 {
		return nil, fmt.Errorf("watch mode needs LEPTOS_RELOAD_PORT")
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		config:      cfg,
		storage:     store,
		router:      router,
		layout:      layout,
		watch:       opts.Watch,
		metrics:     NewMetrics(),
		etags:       site.NewETagCache(),
		rateLimiter: NewRateLimiter(15 * time.Second),
		apiLimiter:  NewAPILimiter(20, 40),
	}
	if opts.Watch {
		s.hub = reload.NewHub()
		s.metrics.ObserveReloadClients(s.hub.Clients)
	}

	s.setupRoutes()
	s.refreshCounts(context.Background())

	return s, nil
}

// Handler returns the HTTP handler for the site address.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on LEPTOS_SITE_ADDR and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.SiteAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.SiteAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln, plus the metrics and reload listeners when
// configured, until ctx is canceled or a listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	servers := []*http.Server{{Handler: s.router}}
	errCh := make(chan error, 3)
	go func() { errCh <- servers[0].Serve(ln) }()
	slog.InfoContext(ctx, "Serving", "addr", ln.Addr().String(), "output", s.config.OutputName, "site", s.layout.Root)

	if s.config.MetricsPort > 0 {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", s.config.MetricsPort),
			Handler: s.metricsHandler(),
		}
		servers = append(servers, srv)
		go func() { errCh <- srv.ListenAndServe() }()
		slog.InfoContext(ctx, "Prometheus metrics", "port", s.config.MetricsPort)
	}

	if s.hub != nil {
		host, _, _ := net.SplitHostPort(s.config.SiteAddr)
		srv := &http.Server{
			Addr:    net.JoinHostPort(host, strconv.Itoa(s.config.ReloadPort)),
			Handler: s.hub.Handler(),
		}
		servers = append(servers, srv)
		go func() { errCh <- srv.ListenAndServe() }()

		w, err := reload.NewWatcher(s.layout.Root, s.layout.StylesheetHref(), s.hub)
		if err != nil {
			shutdown(servers)
			return fmt.Errorf("failed to watch %s: %w", s.layout.Root, err)
		}
		go w.Run(ctx)
		slog.InfoContext(ctx, "Live reload", "addr", srv.Addr, "watching", s.layout.Root)
	}

	go s.runSweeper(ctx)

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	if s.hub != nil {
		s.hub.Close()
	}
	shutdown(servers)
	return err
}

func shutdown(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Shutdown failed", "addr", srv.Addr, "err", err)
		}
	}
}

// Close releases the database
func (s *Server) Close() error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.storage.Close()
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/api/health", s.handleHealth)
	s.router.GET("/api/config", s.handleConfig)

	// Queries are public
	api := s.router.Group("/api")
	api.POST("/get_todos", s.serverFn("get_todos", s.getTodos))
	api.POST("/search_todos", s.serverFn("search_todos", s.searchTodos))

	// Mutations are throttled, and token protected when a token is configured
	mutations := s.router.Group("/api")
	mutations.Use(s.apiLimitMiddleware())
	if s.config.Token != "" {
		mutations.Use(s.authMiddleware())
	}
	{
		mutations.POST("/add_todo", s.serverFn("add_todo", s.addTodo))
		mutations.POST("/delete_todo", s.serverFn("delete_todo", s.deleteTodo))
		mutations.POST("/delete_all", s.serverFn("delete_all", s.deleteAll))
		mutations.POST("/toggle_todo", s.serverFn("toggle_todo", s.toggleTodo))
		mutations.POST("/mark_all_done", s.serverFn("mark_all_done", s.markAllDone))
		mutations.POST("/mark_all_undone", s.serverFn("mark_all_undone", s.markAllUndone))
	}

	// Pages, then site assets for anything else
	s.router.GET("/", s.handleHome)
	s.router.HEAD("/", s.handleHome)
	s.router.NoRoute(s.handleNoRoute)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := GetRealIP(c)

		// Check if IP is blocked due to previous failed attempts
		if s.rateLimiter.IsBlocked(clientIP) {
			LogFailedAuth(clientIP, "ip temporarily blocked", true)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many failed attempts, try again later"})
			return
		}

		token := c.GetHeader("Authorization")
		if token == "" {
			LogFailedAuth(clientIP, "missing authorization header", false)
			s.rateLimiter.BlockIP(clientIP)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		// Check for Bearer prefix
		const prefix = "Bearer "
		if len(token) > len(prefix) && token[:len(prefix)] == prefix {
			token = token[len(prefix):]
		}

		if token != s.config.Token {
			LogFailedAuth(clientIP, "invalid token", false)
			s.rateLimiter.BlockIP(clientIP)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}

func (s *Server) apiLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.apiLimiter.Allow(GetRealIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur", time.Since(start).Round(time.Microsecond),
			"ip", GetRealIP(c),
		)
	}
}

func (s *Server) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.rateLimiter.Sweep(now)
			s.apiLimiter.Sweep(now.Add(-10 * time.Minute))
		}
	}
}

func (s *Server) refreshCounts(ctx context.Context) {
	total, done, err := s.storage.CountTodos(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count todos", "err", err)
		return
	}
	s.metrics.setCounts(total, done)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":       s.config.Title,
		"output_name": s.config.OutputName,
		"stylesheet":  s.layout.StylesheetHref(),
		"watch":       s.watch,
	})
}

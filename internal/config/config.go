// Package config loads server configuration from the environment and client
// configuration from the user's config directory.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/johann/leptos-todo/internal/site"
)

var (
	configDir    string
	configDirErr error
	configOnce   sync.Once
)

// ClientConfig holds configuration for the todo CLI
type ClientConfig struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token,omitempty"`
}

// ServerConfig is read once at process startup. The LEPTOS_* variables form
// the deployment contract with the site build; TODO_* ones are local to
// this server.
type ServerConfig struct {
	OutputName string `env:"LEPTOS_OUTPUT_NAME" envDefault:"leptos-todo"`
	SiteRoot   string `env:"LEPTOS_SITE_ROOT" envDefault:"site"`
	SitePkgDir string `env:"LEPTOS_SITE_PKG_DIR" envDefault:"pkg"`
	SiteAddr   string `env:"LEPTOS_SITE_ADDR" envDefault:"127.0.0.1:3000"`
	ReloadPort int    `env:"LEPTOS_RELOAD_PORT" envDefault:"3001"`

	DBPath      string        `env:"TODO_DB_PATH" envDefault:"Todos.db"`
	Token       string        `env:"TODO_API_TOKEN"`
	APIDelay    time.Duration `env:"TODO_API_DELAY" envDefault:"0s"`
	MetricsPort int           `env:"TODO_METRICS_PORT" envDefault:"0"`
	Title       string        `env:"TODO_TITLE" envDefault:"Todo"`
	LogLevel    string        `env:"TODO_LOG_LEVEL" envDefault:"info"`

	S3 S3Config `envPrefix:"TODO_S3_"`
}

// S3Config holds snapshot storage settings
type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	Bucket    string `env:"BUCKET"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Prefix    string `env:"PREFIX" envDefault:"snapshots/"`
}

// LoadServer reads the server configuration from the process environment.
func LoadServer() (*ServerConfig, error) {
	return parseServer(env.Options{})
}

// LoadServerFrom reads the server configuration from the given variables
// instead of the process environment.
func LoadServerFrom(environ map[string]string) (*ServerConfig, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parseServer(env.Options{Environment: environ})
}

func parseServer(opts env.Options) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first malformed setting.
func (c *ServerConfig) Validate() error {
	if c.OutputName == "" || strings.ContainsAny(c.OutputName, `/\`) {
		return fmt.Errorf("LEPTOS_OUTPUT_NAME must be a plain file name, got %q", c.OutputName)
	}
	if c.SiteRoot == "" {
		return fmt.Errorf("LEPTOS_SITE_ROOT must not be empty")
	}
	if c.SitePkgDir == "" || c.SitePkgDir == "." || c.SitePkgDir == ".." || strings.ContainsAny(c.SitePkgDir, `/\`) {
		return fmt.Errorf("LEPTOS_SITE_PKG_DIR must be a single directory name, got %q", c.SitePkgDir)
	}
	if err := validateAddr(c.SiteAddr); err != nil {
		return fmt.Errorf("LEPTOS_SITE_ADDR: %w", err)
	}
	if c.ReloadPort < 0 || c.ReloadPort > 65535 {
		return fmt.Errorf("LEPTOS_RELOAD_PORT out of range: %d", c.ReloadPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("TODO_METRICS_PORT out of range: %d", c.MetricsPort)
	}
	if c.APIDelay < 0 {
		return fmt.Errorf("TODO_API_DELAY must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("TODO_LOG_LEVEL: %w", err)
	}
	return nil
}

// Layout returns the site layout the server expects on disk.
func (c *ServerConfig) Layout() site.Layout {
	return site.Layout{
		Root:       c.SiteRoot,
		PkgDir:     c.SitePkgDir,
		OutputName: c.OutputName,
	}
}

// Exports renders the deployment contract as shell export lines.
func (c *ServerConfig) Exports() []string {
	return []string{
		"export LEPTOS_OUTPUT_NAME=" + strconv.Quote(c.OutputName),
		"export LEPTOS_SITE_ROOT=" + strconv.Quote(c.SiteRoot),
		"export LEPTOS_SITE_PKG_DIR=" + strconv.Quote(c.SitePkgDir),
		"export LEPTOS_SITE_ADDR=" + strconv.Quote(c.SiteAddr),
		"export LEPTOS_RELOAD_PORT=" + strconv.Quote(strconv.Itoa(c.ReloadPort)),
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// Dir returns the configuration directory path. The result of the first
// call, error included, is returned by every later call.
func Dir() (string, error) {
	configOnce.Do(func() {
		base, err := os.UserConfigDir()
		if err != nil {
			configDirErr = err
			return
		}
		dir := filepath.Join(base, "leptos-todo")
		if err := os.MkdirAll(dir, 0700); err != nil {
			configDirErr = fmt.Errorf("failed to create config directory: %w", err)
			return
		}
		configDir = dir
	})
	return configDir, configDirErr
}

// LoadClient loads the client configuration.
// TODO_SERVER_URL and TODO_API_TOKEN take precedence over the file.
func LoadClient() (*ClientConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	cfg, err := readClient(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("TODO_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("TODO_API_TOKEN"); v != "" {
		cfg.Token = v
	}
	return cfg, nil
}

func readClient(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ClientConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveClient saves the client configuration
func SaveClient(cfg *ClientConfig) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return writeClient(filepath.Join(dir, "config.json"), cfg)
}

func writeClient(path string, cfg *ClientConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

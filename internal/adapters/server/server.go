// Package server mounts the board's REST and MCP transports behind one HTTP
// listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evanschultz/arcboard/internal/adapters/server/common"
	"github.com/evanschultz/arcboard/internal/adapters/server/httpapi"
	"github.com/evanschultz/arcboard/internal/adapters/server/mcpapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultBind        = "127.0.0.1:8080"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"
	shutdownGrace      = 5 * time.Second
	readHeaderTimeout  = 10 * time.Second
)

// reservedPaths are served by the root router itself.
var reservedPaths = []string{"/healthz", "/readyz"}

// Config selects the listen address and where each transport is mounted.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the services the transports expose.
type Dependencies struct {
	Board common.BoardService
	// Logger is optional; Run stays quiet without it.
	Logger Logger
}

// Logger receives serve lifecycle events.
type Logger interface {
	Info(msg string, keyvals ...any)
}

func (d Dependencies) info(msg string, keyvals ...any) {
	if d.Logger != nil {
		d.Logger.Info(msg, keyvals...)
	}
}

// NewHandler returns the root router and the config after defaults.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	if deps.Board == nil {
		return nil, Config{}, errors.New("board dependency is required")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, Config{}, err
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Board)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	for _, path := range reservedPaths {
		r.Get(path, writeHealthStatus)
	}
	r.Handle(cfg.MCPEndpoint, mcpHandler)
	r.Mount(cfg.APIEndpoint, httpapi.NewHandler(deps.Board))
	return r, cfg, nil
}

// Run serves until ctx ends, then drains in-flight requests for up to
// shutdownGrace.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPBind,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	shutdownDone := make(chan error, 1)
	stop := context.AfterFunc(ctx, func() {
		deps.info("shutting down board server", "grace", shutdownGrace)
		graceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		shutdownDone <- srv.Shutdown(graceCtx)
	})
	defer stop()

	deps.info("serving board", "addr", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	// ErrServerClosed only follows the Shutdown issued above.
	if err := <-shutdownDone; err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func (c Config) withDefaults() (Config, error) {
	if c.HTTPBind = strings.TrimSpace(c.HTTPBind); c.HTTPBind == "" {
		c.HTTPBind = defaultBind
	}
	if c.ServerName = strings.TrimSpace(c.ServerName); c.ServerName == "" {
		c.ServerName = "arcboard"
	}
	if c.ServerVersion = strings.TrimSpace(c.ServerVersion); c.ServerVersion == "" {
		c.ServerVersion = "dev"
	}
	c.APIEndpoint = normalizeEndpoint(c.APIEndpoint, defaultAPIEndpoint)
	c.MCPEndpoint = normalizeEndpoint(c.MCPEndpoint, defaultMCPEndpoint)

	if c.APIEndpoint == c.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints both resolve to %q", c.APIEndpoint)
	}
	for _, path := range reservedPaths {
		if c.APIEndpoint == path || c.MCPEndpoint == path {
			return Config{}, fmt.Errorf("endpoint %q is reserved for health checks", path)
		}
	}
	return c, nil
}

// normalizeEndpoint trims slashes to one leading "/". Blank and root paths
// take the fallback.
func normalizeEndpoint(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return "/" + path
}

func writeHealthStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

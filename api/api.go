package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/vector"
)

// Server is the API server for inspecting caselode collections and serving
// the memory MCP endpoint.
type Server struct {
	config Config
	store  vector.Driver
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The vector driver is injected to allow sharing with other components
// (e.g., the ingestion pipeline when both run in one process).
func NewServer(config Config, store vector.Driver, mcpHandler http.Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		store:  store,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/collections/:name/status", s.handleCollectionStatus)
	app.Get("/collections/:name/count", s.handleCollectionCount)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Test performs a request against the in-process app. Used by tests.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req)
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/rag"
	"github.com/roadworksco/milepost/pkg/vector"
)

// Server is the HTTP API for querying ingested manuals.
type Server struct {
	config  Config
	service *rag.Service
	driver  vector.Driver
	logger  *zap.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The rag service and vector driver
// are injected so the CLI and server share one wired pipeline.
func NewServer(config Config, service *rag.Service, driver vector.Driver, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		service: service,
		driver:  driver,
		logger:  logger,
		app:     app,
	}

	app.Get("/healthz", s.handleHealthz)
	app.Get("/api/v1/status", s.handleStatus)
	app.Post("/api/v1/query", s.handleQuery)

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

package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Server wraps the fiber application with a start/stop lifecycle.
type Server struct {
	app      *fiber.App
	logger   *zap.Logger
	endpoint string
}

// NewServer constructs the HTTP server and mounts the handler routes.
func NewServer(port int, handler *Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "evalboard",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	handler.Register(app)

	return &Server{
		app:      app,
		logger:   logger,
		endpoint: fmt.Sprintf(":%d", port),
	}
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start blocks serving HTTP until Stop is called or listening fails.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("endpoint", s.endpoint))
	return s.app.Listen(s.endpoint)
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop() {
	if err := s.app.Shutdown(); err != nil {
		s.logger.Error("failed to shut down HTTP server", zap.Error(err))
	}
}

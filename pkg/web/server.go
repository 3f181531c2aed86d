// Package web serves the code lookup API over HTTP and websockets.
package web

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/qrlookup/internal/log"
	"github.com/teslashibe/qrlookup/pkg/hub"
	"github.com/teslashibe/qrlookup/pkg/lookup"
)

// Lookuper resolves a code to a result. *lookup.Service implements it.
type Lookuper interface {
	Lookup(ctx context.Context, code string) (*lookup.Result, error)
}

var _ Lookuper = (*lookup.Service)(nil)

// Server is the lookup HTTP server.
type Server struct {
	app      *fiber.App
	config   *Config
	lookuper Lookuper
	logger   *slog.Logger

	// Lookup event feed for dashboards
	events *hub.Hub

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server around l. The event hub starts immediately.
func NewServer(l Lookuper, opts ...Option) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := log.Or(cfg.Logger).With("component", "web")

	s := &Server{
		config:   cfg,
		lookuper: l,
		logger:   logger,
		events:   hub.New("lookups", logger),
		ctx:      ctx,
		cancel:   cancel,
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New())
	if cfg.RequestLogging {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	app.Get("/health", s.handleHealth)
	app.Post("/lookup", s.handleLookup)
	app.Post("/buscar-qr", s.handleLookup)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/lookups", websocket.New(s.handleLookupsWS))
	s.registerStation(app)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	go s.events.Run(ctx)
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Events returns the lookup event hub.
func (s *Server) Events() *hub.Hub {
	return s.events
}

// Start listens on the configured port and blocks.
func (s *Server) Start() error {
	fmt.Printf("🌐 Lookup server: http://localhost:%s\n", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the event hub and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.app.ShutdownWithContext(ctx)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

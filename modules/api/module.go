// Package api exposes the HTTP and websocket surface of the overlay backend.
package api

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Emerick-P/QuackChat/modules/bridge"
)

// Module implements the HTTP server module using the Fiber framework.
type Module struct {
	app      *fiber.App
	handlers *Handlers

	port        int
	corsOrigins []string
	devRoutes   bool
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the API module. devRoutes mounts the development login
// and test push endpoints; keep it off in production.
func NewModule(port int, corsOrigins []string, devRoutes bool, handlers *Handlers) *Module {
	return &Module{
		port:        port,
		corsOrigins: corsOrigins,
		devRoutes:   devRoutes,
		handlers:    handlers,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetBroadcaster wires the selected broadcaster into the websocket and dev
// handlers. Must be called after the bridge module has started.
func (m *Module) SetBroadcaster(b bridge.Broadcaster) {
	m.handlers.broadcaster = b
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(_ context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "QuackChat Backend",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(m.corsOrigins, ","),
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.port)); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	log.Printf("[api] Server started on port %d", m.port)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	log.Println("[api] Server stopped")
	return nil
}

// Health reports server readiness.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{Healthy: false, Message: "server not started"}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"port": m.port},
	}
}

// registerRoutes sets up all HTTP and websocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)
	m.app.Get("/palette", m.handlers.GetPalette)

	// Websocket upgrade middleware
	m.app.Use("/overlay/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/overlay/ws", websocket.New(m.handlers.HandleOverlayWS))

	m.app.Post("/pairing", m.handlers.CreatePairing)
	m.app.Post("/pairing/claim", m.handlers.ClaimPairing)

	me := m.app.Group("/me", AuthMiddleware(m.handlers.auth.Manager()))
	me.Get("/avatar", m.handlers.GetMyAvatar)
	me.Patch("/avatar", m.handlers.PatchMyAvatar)

	if m.devRoutes {
		m.app.Post("/auth/dev/login", m.handlers.DevLogin)
		m.app.Get("/_dev/overlay/testpush", m.handlers.DevTestPush)
		log.Println("[api] Dev routes mounted")
	}
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{Error: message})
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/Emerick-P/QuackChat/config"
	"github.com/Emerick-P/QuackChat/modules/api"
	"github.com/Emerick-P/QuackChat/modules/auth"
	"github.com/Emerick-P/QuackChat/modules/bridge"
	"github.com/Emerick-P/QuackChat/modules/identity"
	"github.com/Emerick-P/QuackChat/modules/pairing"
	"github.com/Emerick-P/QuackChat/modules/rooms"
	"github.com/Emerick-P/QuackChat/modules/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== QuackChat Backend - Overlay Event Broadcast ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create services. Identity and pairing share the database handle so a
	// claim can touch both tables in one transaction.
	users := identity.NewRepository(db)
	avatars := identity.NewService(users)
	pairingSvc := pairing.NewService(db, cfg.PairingTTL)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     cfg.JWTSecret,
		TokenDuration: cfg.JWTTTL,
		Issuer:        "quackchat",
	})
	authSvc := auth.NewService(jwtManager, users)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	roomsModule := rooms.NewModule()
	bridgeModule := bridge.NewModule(cfg.RedisAddr, cfg.BridgePrefix, roomsModule.Registry())
	pairingModule := pairing.NewModule(pairingSvc, cfg.PairingSweepSpec)
	handlers := api.NewHandlers(roomsModule.Registry(), pairingSvc, avatars, users, authSvc)
	apiModule := api.NewModule(cfg.HTTPPort, cfg.CORSOrigins, !cfg.IsProd(), handlers)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - rooms: connection registry (no dependencies)
	// - bridge: Redis fan-out, selects the broadcaster (depends on rooms)
	// - pairing: code store + expiry sweep
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(roomsModule)
	app.Register(bridgeModule)
	app.Register(pairingModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wire the broadcaster selected by the bridge at startup into everything
	// that emits overlay events. Done manually after Start because the choice
	// (Redis vs local) is only known once the bridge has probed the bus.
	broadcaster := bridgeModule.Broadcaster()
	apiModule.SetBroadcaster(broadcaster)
	avatars.SetBroadcaster(broadcaster)
	pairingSvc.SetBroadcaster(broadcaster)

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Printf("  - Fan-out bus: Redis pub/sub at %s (prefix %q)", cfg.RedisAddr, cfg.BridgePrefix)
	log.Printf("  - Storage: SQLite at %s", cfg.DBPath)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.HTTPPort)
	log.Println("  GET    /health          - Health check")
	log.Println("  GET    /palette         - Avatar color catalog")
	log.Println("  POST   /pairing         - Issue a pairing code")
	log.Println("  POST   /pairing/claim   - Claim a pairing code")
	log.Println("  GET    /me/avatar       - Read own avatar (Bearer token)")
	log.Println("  PATCH  /me/avatar       - Update own avatar (Bearer token)")
	if !cfg.IsProd() {
		log.Println("  POST   /auth/dev/login  - Dev session token")
		log.Println("  GET    /_dev/overlay/testpush - Inject a test chat event")
	}
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%d/overlay/ws):", cfg.HTTPPort)
	log.Println("  Connect with: ws://localhost:3000/overlay/ws?channel=default")
	log.Println("  Personal room: ws://localhost:3000/overlay/ws?channel=me&token=<jwt>")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

package bridge

import (
	"context"
	"log"
	"time"

	"github.com/go-monolith/mono"

	"github.com/Emerick-P/QuackChat/modules/rooms"
)

// Module owns the bus lifecycle and selects the application broadcaster:
// the Redis bridge when the bus answers a ping at startup, the local
// broadcaster otherwise.
type Module struct {
	addr     string
	prefix   string
	registry *rooms.Registry

	bridge   *Bridge
	degraded bool
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the bridge module.
func NewModule(addr, prefix string, registry *rooms.Registry) *Module {
	return &Module{
		addr:     addr,
		prefix:   prefix,
		registry: registry,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "bridge"
}

// Start connects to the bus. An unreachable bus is not fatal: the module
// degrades to local-only broadcast and logs the loss of cross-process
// fan-out.
func (m *Module) Start(_ context.Context) error {
	bridge := New(m.addr, m.prefix, m.registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := bridge.Connect(ctx); err != nil {
		log.Printf("[bridge] Bus unavailable at %s, degrading to local-only broadcast: %v", m.addr, err)
		m.degraded = true
		return nil
	}

	m.bridge = bridge
	log.Printf("[bridge] Connected to Redis at %s (prefix: %s)", m.addr, m.prefix)
	return nil
}

// Stop cancels all listeners and closes the bus client.
func (m *Module) Stop(_ context.Context) error {
	if m.bridge != nil {
		if err := m.bridge.Close(); err != nil {
			log.Printf("[bridge] Error closing Redis connection: %v", err)
			return err
		}
	}
	log.Println("[bridge] Module stopped")
	return nil
}

// Health reports bus reachability and listener occupancy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.degraded {
		return mono.HealthStatus{
			Healthy: true,
			Message: "degraded: local-only broadcast",
		}
	}
	if err := m.bridge.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"listeners": m.bridge.ListenerCount(),
		},
	}
}

// Broadcaster returns the selected broadcaster implementation.
func (m *Module) Broadcaster() Broadcaster {
	if m.degraded || m.bridge == nil {
		return NewLocal(m.registry)
	}
	return m.bridge
}

package rooms

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module exposes the connection registry as a mono module.
type Module struct {
	registry *Registry
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the rooms module with a fresh registry.
func NewModule() *Module {
	return &Module{registry: NewRegistry()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rooms"
}

// Start marks the module ready; the registry itself has no startup work.
func (m *Module) Start(_ context.Context) error {
	log.Println("[rooms] Module started")
	return nil
}

// Stop closes every live connection.
func (m *Module) Stop(_ context.Context) error {
	count := m.registry.ConnCount()
	m.registry.CloseAll()
	log.Printf("[rooms] Module stopped - %d connection(s) closed", count)
	return nil
}

// Health reports registry occupancy.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"channels":    m.registry.ChannelCount(),
			"connections": m.registry.ConnCount(),
		},
	}
}

// Registry returns the connection registry for wiring into other modules.
func (m *Module) Registry() *Registry {
	return m.registry
}

package bridge

import (
	"context"
	"fmt"

	"github.com/Emerick-P/QuackChat/events"
	"github.com/Emerick-P/QuackChat/modules/rooms"
)

// Local is the no-bus broadcaster: events go straight to the in-process
// registry. Single-process deployments run on this permanently; multi-process
// deployments fall back to it while Redis is unreachable.
type Local struct {
	registry *rooms.Registry
}

var _ Broadcaster = (*Local)(nil)

// NewLocal creates a local-only broadcaster over registry.
func NewLocal(registry *rooms.Registry) *Local {
	return &Local{registry: registry}
}

// Send encodes env once and delivers it to local channel members.
func (l *Local) Send(_ context.Context, channel string, env events.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	l.registry.Broadcast(channel, data)
	return nil
}

// EnsureListener is a no-op; there is no bus to listen to.
func (l *Local) EnsureListener(string) {}

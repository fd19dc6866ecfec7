package rooms

import (
	"log"
	"sync"
)

// Conn is one live client transport owned by the registry for the duration
// of its session.
type Conn interface {
	WriteText(data []byte) error
	Close() error
}

// Registry multiplexes overlay channels over live websocket connections.
// A channel exists while it has at least one member; empty channels are
// removed from the map. Membership is bounded only by process resources
// (file descriptors and memory), there is no per-channel cap.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[Conn]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]map[Conn]struct{}),
	}
}

// Add registers conn under channel. Adding the same connection twice is a
// no-op.
func (r *Registry) Add(conn Conn, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.channels[channel]
	if members == nil {
		members = make(map[Conn]struct{})
		r.channels[channel] = members
	}
	members[conn] = struct{}{}
}

// Remove unregisters conn from channel. Removing an absent connection is a
// no-op, so disconnect cleanup stays idempotent with broadcast pruning.
func (r *Registry) Remove(conn Conn, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(conn, channel)
}

func (r *Registry) remove(conn Conn, channel string) {
	members, ok := r.channels[channel]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(r.channels, channel)
	}
}

// Broadcast delivers data to every connection currently in channel. Delivery
// runs against a snapshot taken at call time; a connection whose write fails
// is evicted and closed without aborting delivery to the rest. Broadcasting
// to an empty channel is a no-op.
func (r *Registry) Broadcast(channel string, data []byte) {
	r.mu.RLock()
	snapshot := make([]Conn, 0, len(r.channels[channel]))
	for conn := range r.channels[channel] {
		snapshot = append(snapshot, conn)
	}
	r.mu.RUnlock()

	var failed []Conn
	for _, conn := range snapshot {
		if err := conn.WriteText(data); err != nil {
			failed = append(failed, conn)
		}
	}

	if len(failed) == 0 {
		return
	}

	r.mu.Lock()
	for _, conn := range failed {
		r.remove(conn, channel)
	}
	r.mu.Unlock()

	for _, conn := range failed {
		_ = conn.Close()
	}
	log.Printf("[rooms] Pruned %d dead connection(s) from channel %s", len(failed), channel)
}

// Count returns the number of connections in channel.
func (r *Registry) Count(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}

// ChannelCount returns the number of non-empty channels.
func (r *Registry) ChannelCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// ConnCount returns the total number of connections across all channels.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, members := range r.channels {
		total += len(members)
	}
	return total
}

// CloseAll closes every connection and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, members := range r.channels {
		for conn := range members {
			_ = conn.Close()
		}
	}
	r.channels = make(map[string]map[Conn]struct{})
}

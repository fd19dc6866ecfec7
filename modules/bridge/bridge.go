// Package bridge fans overlay events out across server processes over Redis
// pub/sub. When the bus is unreachable the application degrades to
// local-only delivery through the Local broadcaster.
package bridge

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Emerick-P/QuackChat/events"
	"github.com/Emerick-P/QuackChat/modules/rooms"
)

// Broadcaster is the capability callers publish through. Exactly one
// implementation is selected at startup (Bridge when the bus is reachable,
// Local otherwise); call sites never branch on bus presence.
type Broadcaster interface {
	// Send delivers env to every client in channel, on this process and,
	// bus permitting, on every other subscribed process.
	Send(ctx context.Context, channel string, env events.Envelope) error
	// EnsureListener guarantees inbound bus traffic for channel reaches the
	// local registry. No-op without a bus.
	EnsureListener(channel string)
}

// DefaultPrefix namespaces this application's topics on a shared bus.
const DefaultPrefix = "overlay:"

// subscribeFunc opens a message stream for one topic. Swappable in tests.
type subscribeFunc func(ctx context.Context, topic string) (<-chan *redis.Message, func() error)

// Bridge is the Redis-backed broadcaster. It owns the channel -> listener
// table; at most one listener goroutine runs per channel process-wide.
type Bridge struct {
	client    *redis.Client
	addr      string
	prefix    string
	registry  *rooms.Registry
	subscribe subscribeFunc

	mu        sync.Mutex
	listeners map[string]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a bridge for the given Redis address. Connect must succeed
// before the bridge is handed out as the application broadcaster.
func New(addr, prefix string, registry *rooms.Registry) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		addr:      addr,
		prefix:    prefix,
		registry:  registry,
		listeners: make(map[string]context.CancelFunc),
		ctx:       ctx,
		cancel:    cancel,
	}
	b.subscribe = b.redisSubscribe
	return b
}

// Connect lazily creates the Redis client and validates reachability with a
// ping. Calling it again on a connected bridge is a no-op.
func (b *Bridge) Connect(ctx context.Context) error {
	if b.client != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         b.addr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b.client = client
	return nil
}

// Ping checks bus health.
func (b *Bridge) Ping(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("bridge not connected")
	}
	return b.client.Ping(ctx).Err()
}

// Send publishes env under the channel's namespaced topic. Local clients
// receive it through this process's own listener, so Send never writes to
// the registry directly; doing both would double-deliver.
func (b *Bridge) Send(ctx context.Context, channel string, env events.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.topic(channel), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.topic(channel), err)
	}
	return nil
}

// EnsureListener starts the listener goroutine for channel unless one is
// already running. The check and the registration are one critical section;
// N concurrent callers yield exactly one listener.
func (b *Bridge) EnsureListener(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, running := b.listeners[channel]; running {
		return
	}

	ctx, cancel := context.WithCancel(b.ctx)
	b.listeners[channel] = cancel
	go b.listen(ctx, channel)
}

// listen re-injects bus messages for channel into the local registry until
// cancelled or the stream closes. On exit it unregisters itself so a later
// EnsureListener call can restart it. No internal retry.
func (b *Bridge) listen(ctx context.Context, channel string) {
	defer func() {
		b.mu.Lock()
		delete(b.listeners, channel)
		b.mu.Unlock()
	}()

	msgs, closeSub := b.subscribe(ctx, b.topic(channel))
	defer func() { _ = closeSub() }()

	log.Printf("[bridge] Listening on %s", b.topic(channel))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("[bridge] Listener for %s lost its stream", channel)
				return
			}
			payload := []byte(msg.Payload)
			if _, valid := events.Decode(payload); !valid {
				// Malformed or unknown kind: drop, never crash the listener.
				continue
			}
			b.registry.Broadcast(channel, payload)
		}
	}
}

// ListenerCount returns the number of running listener goroutines.
func (b *Bridge) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Close cancels all listeners and closes the client.
func (b *Bridge) Close() error {
	b.cancel()
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

func (b *Bridge) topic(channel string) string {
	return b.prefix + channel
}

func (b *Bridge) redisSubscribe(ctx context.Context, topic string) (<-chan *redis.Message, func() error) {
	pubsub := b.client.Subscribe(ctx, topic)
	return pubsub.Channel(), pubsub.Close
}

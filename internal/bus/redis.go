package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus implements Bus on Redis pub/sub so the UI and the relay can
// live in different processes
type RedisBus struct {
	client    *redis.Client
	ownClient bool
	buffer    int
	logger    *zap.Logger

	mu      sync.Mutex
	pubsubs map[*redis.PubSub]struct{}
	closed  bool
	done    chan struct{}
}

// NewRedisBus creates a bus on an existing client; the caller keeps ownership of it
func NewRedisBus(client *redis.Client, logger *zap.Logger, buffer int) *RedisBus {
	if buffer <= 0 {
		buffer = 1
	}
	return &RedisBus{
		client:  client,
		buffer:  buffer,
		logger:  logger,
		pubsubs: make(map[*redis.PubSub]struct{}),
		done:    make(chan struct{}),
	}
}

// NewRedisBusFromAddr connects to addr and owns the resulting client
func NewRedisBusFromAddr(ctx context.Context, addr string, logger *zap.Logger, buffer int) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis bus at %s: %w", addr, err)
	}

	b := NewRedisBus(client, logger, buffer)
	b.ownClient = true
	return b, nil
}

// Publish sends payload on the redis channel named topic
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed before returning,
// so nothing published afterwards is missed
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.mu.Unlock()

	ps := b.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	b.mu.Lock()
	b.pubsubs[ps] = struct{}{}
	b.mu.Unlock()

	in := ps.Channel()
	out := make(chan []byte, b.buffer)

	go func() {
		defer close(out)
		defer b.release(ps)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				// waiting here lets go-redis queue behind us instead of dropping
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				case <-b.done:
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *RedisBus) release(ps *redis.PubSub) {
	b.mu.Lock()
	_, ok := b.pubsubs[ps]
	delete(b.pubsubs, ps)
	b.mu.Unlock()

	if ok {
		if err := ps.Close(); err != nil {
			b.logger.Debug("Failed to close subscription", zap.Error(err))
		}
	}
}

// Close closes every subscription and the client when owned
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	subs := b.pubsubs
	b.pubsubs = make(map[*redis.PubSub]struct{})
	b.mu.Unlock()

	for ps := range subs {
		ps.Close()
	}

	if b.ownClient {
		return b.client.Close()
	}
	return nil
}

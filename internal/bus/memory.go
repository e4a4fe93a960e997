package bus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type subscriber struct {
	ch     chan []byte
	quit   chan struct{}
	closed bool

	// publishers holding a reference; ch is closed only once they are gone
	senders sync.WaitGroup
}

// MemoryBus is an in-process implementation of Bus
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	logger *zap.Logger
	done   chan struct{}
	closed bool
}

// NewMemoryBus creates a new in-process bus; buffer is the per-subscriber queue length
func NewMemoryBus(logger *zap.Logger, buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 1
	}
	return &MemoryBus{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Publish delivers payload to every subscriber of topic. When a
// subscriber's queue is full it waits for room until ctx is done or the
// subscriber goes away, so a live subscriber never misses a message.
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := make([]*subscriber, 0, len(b.subs[topic]))
	for sub := range b.subs[topic] {
		sub.senders.Add(1)
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	var err error
	for _, sub := range subs {
		if err == nil {
			err = b.deliver(ctx, topic, sub, payload)
		}
		sub.senders.Done()
	}
	return err
}

func (b *MemoryBus) deliver(ctx context.Context, topic string, sub *subscriber, payload []byte) error {
	msg := make([]byte, len(payload))
	copy(msg, payload)

	select {
	case sub.ch <- msg:
		return nil
	default:
	}

	b.logger.Debug("Subscriber queue full, waiting", zap.String("topic", topic))
	select {
	case sub.ch <- msg:
		return nil
	case <-sub.quit:
		return nil
	case <-ctx.Done():
		b.logger.Warn("Publish abandoned on full subscriber queue", zap.String("topic", topic))
		return fmt.Errorf("failed to publish on %s: %w", topic, ctx.Err())
	}
}

// Subscribe registers a new subscriber on topic
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{
		ch:   make(chan []byte, b.buffer),
		quit: make(chan struct{}),
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*subscriber]struct{})
	}
	b.subs[topic][sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.unsubscribe(topic, sub)
	}()

	return sub.ch, nil
}

func (b *MemoryBus) unsubscribe(topic string, sub *subscriber) {
	b.mu.Lock()
	if sub.closed {
		b.mu.Unlock()
		return
	}
	sub.closed = true
	delete(b.subs[topic], sub)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	close(sub.quit)
	b.mu.Unlock()

	// no new sender can find sub once it left the map
	sub.senders.Wait()
	close(sub.ch)
}

// Close closes every subscription
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}

// Package bus carries protocol messages between the UI side and the relay.
// Delivery is fire-and-forget: there is no acknowledgement or redelivery.
// A publish waits for room in a full subscriber queue rather than dropping
// the message, bounded by its context.
package bus

import (
	"context"
	"errors"
)

// ErrClosed is returned when using a closed bus
var ErrClosed = errors.New("bus closed")

// Bus is a topic based publish/subscribe transport
type Bus interface {
	// Publish sends payload to every current subscriber of topic.
	// It blocks while a subscriber queue is full and fails once ctx is done.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe returns a channel of payloads published on topic after the call returns.
	// The channel is closed when ctx is done or the bus is closed.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)

	// Close releases the bus and closes every subscription
	Close() error
}

// Topics names the two directions of the protocol
type Topics struct {
	Actions string
	Results string
}

// NewTopics derives the topic names from a prefix
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = "fraudguard"
	}
	return Topics{
		Actions: prefix + ":actions",
		Results: prefix + ":results",
	}
}

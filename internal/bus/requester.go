package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mikey/fraudguard/internal/protocol"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by Send before Start
	ErrNotStarted = errors.New("requester not started")
	// ErrRequesterClosed is returned when the result subscription ends while waiting
	ErrRequesterClosed = errors.New("requester closed")
)

// Requester sends ActionMessages and matches each ResultMessage to its
// request by id. Every pending request is fulfilled at most once.
type Requester struct {
	bus    Bus
	topics Topics
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]chan protocol.ResultMessage
	done    chan struct{}
}

// NewRequester creates a requester on b
func NewRequester(b Bus, topics Topics, logger *zap.Logger) *Requester {
	return &Requester{
		bus:     b,
		topics:  topics,
		logger:  logger,
		pending: make(map[string]chan protocol.ResultMessage),
	}
}

// Start subscribes to results; the subscription lives until ctx is done
func (r *Requester) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return nil
	}

	results, err := r.bus.Subscribe(ctx, r.topics.Results)
	if err != nil {
		return err
	}

	r.done = make(chan struct{})
	go r.receive(results, r.done)
	return nil
}

// Done is closed once the result subscription has ended
func (r *Requester) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Requester) receive(results <-chan []byte, done chan struct{}) {
	defer close(done)

	for raw := range results {
		msg, err := protocol.DecodeResult(raw)
		if err != nil {
			r.logger.Warn("Ignoring undecodable result", zap.Error(err))
			continue
		}
		if msg.RequestID == "" {
			r.logger.Debug("Ignoring result without request id", zap.String("action", string(msg.Action)))
			continue
		}

		r.mu.Lock()
		ch, ok := r.pending[msg.RequestID]
		delete(r.pending, msg.RequestID)
		r.mu.Unlock()

		if !ok {
			r.logger.Debug("Ignoring result for unknown request", zap.String("request_id", msg.RequestID))
			continue
		}
		ch <- msg
	}
}

// Send publishes msg and waits for its result. A request id is assigned
// when msg has none. Cancelling ctx abandons the wait, not the remote call.
func (r *Requester) Send(ctx context.Context, msg protocol.ActionMessage) (protocol.ResultMessage, error) {
	done := r.Done()
	if done == nil {
		return protocol.ResultMessage{}, ErrNotStarted
	}

	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}

	ch := make(chan protocol.ResultMessage, 1)
	r.mu.Lock()
	if _, dup := r.pending[msg.RequestID]; dup {
		r.mu.Unlock()
		return protocol.ResultMessage{}, fmt.Errorf("request %s already pending", msg.RequestID)
	}
	r.pending[msg.RequestID] = ch
	r.mu.Unlock()

	payload, err := protocol.EncodeAction(msg)
	if err != nil {
		r.forget(msg.RequestID)
		return protocol.ResultMessage{}, err
	}

	r.logger.Debug("Sending action",
		zap.String("action", string(msg.Action)),
		zap.String("request_id", msg.RequestID))

	if err := r.bus.Publish(ctx, r.topics.Actions, payload); err != nil {
		r.forget(msg.RequestID)
		return protocol.ResultMessage{}, err
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		r.forget(msg.RequestID)
		return protocol.ResultMessage{}, ctx.Err()
	case <-done:
		r.forget(msg.RequestID)
		return protocol.ResultMessage{}, ErrRequesterClosed
	}
}

// Pending returns the number of requests waiting for a result
func (r *Requester) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Requester) forget(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

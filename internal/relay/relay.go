// Package relay performs the network calls requested by the UI side.
// Each ActionMessage read from the bus yields exactly one ResultMessage.
package relay

import (
	"context"
	"time"

	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/core"
	"github.com/mikey/fraudguard/internal/protocol"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service is the business side of the relay
type Service interface {
	Login(ctx context.Context, creds core.Credentials) (*core.User, error)
	Register(ctx context.Context, creds core.Credentials) (*core.User, error)
	Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResult, error)
	Logout(ctx context.Context) error
}

const emitTimeout = 10 * time.Second

// Relay dispatches actions from the bus to the service
type Relay struct {
	bus         bus.Bus
	topics      bus.Topics
	service     Service
	logger      *zap.Logger
	maxInFlight int
}

// New creates a relay; maxInFlight <= 0 means unbounded
func New(b bus.Bus, topics bus.Topics, service Service, logger *zap.Logger, maxInFlight int) *Relay {
	return &Relay{
		bus:         b,
		topics:      topics,
		service:     service,
		logger:      logger,
		maxInFlight: maxInFlight,
	}
}

// Subscribe opens the action subscription. Callers that must not lose
// early actions subscribe first and then call Serve.
func (r *Relay) Subscribe(ctx context.Context) (<-chan []byte, error) {
	return r.bus.Subscribe(ctx, r.topics.Actions)
}

// Run subscribes and serves until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	actions, err := r.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.Serve(ctx, actions)
	return nil
}

// Serve handles actions until ctx is done or the channel closes, then
// waits for in-flight handlers. Handlers share ctx, so shutdown cancels
// their outbound calls and they still emit an error result.
func (r *Relay) Serve(ctx context.Context, actions <-chan []byte) {
	var g errgroup.Group
	if r.maxInFlight > 0 {
		g.SetLimit(r.maxInFlight)
	}

	r.logger.Info("Relay started", zap.String("topic", r.topics.Actions), zap.Int("max_in_flight", r.maxInFlight))

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case raw, ok := <-actions:
			if !ok {
				break loop
			}

			msg, err := protocol.DecodeAction(raw)
			if err != nil {
				r.logger.Warn("Dropping undecodable action", zap.Error(err))
				continue
			}
			if !msg.Action.IsRequest() {
				r.logger.Warn("Dropping unknown action", zap.String("action", string(msg.Action)))
				continue
			}

			g.Go(func() error {
				r.emit(ctx, r.Handle(ctx, msg))
				return nil
			})
		}
	}

	_ = g.Wait()
	r.logger.Info("Relay stopped")
}

// Handle performs one action and builds its result
func (r *Relay) Handle(ctx context.Context, msg protocol.ActionMessage) protocol.ResultMessage {
	resultAction, _ := msg.Action.ResultAction()
	res := protocol.ResultMessage{Action: resultAction, RequestID: msg.RequestID}

	logger := r.logger.With(
		zap.String("action", string(msg.Action)),
		zap.String("request_id", msg.RequestID))
	logger.Debug("Handling action")

	switch msg.Action {
	case protocol.ActionLogin, protocol.ActionRegister:
		data, err := msg.Credentials()
		if err != nil {
			logger.Warn("Invalid credentials payload", zap.Error(err))
			res.Error = err.Error()
			return res
		}

		creds := core.Credentials{Email: data.Email, Password: data.Password}
		var user *core.User
		if msg.Action == protocol.ActionLogin {
			user, err = r.service.Login(ctx, creds)
		} else {
			user, err = r.service.Register(ctx, creds)
		}
		if err != nil {
			logger.Error("Authentication failed", zap.Error(err))
			res.Error = core.UserMessage(err)
			return res
		}
		res.Success = true
		res.User = user

	case protocol.ActionAnalyzeEmail:
		data, err := msg.Email()
		if err != nil {
			logger.Warn("Invalid email payload", zap.Error(err))
			res.Result = &protocol.Analysis{Error: err.Error()}
			return res
		}

		result, err := r.service.Analyze(ctx, core.AnalysisRequest{
			Sender:  data.Source,
			Subject: data.Subject,
			Body:    data.Text,
		})
		if err != nil {
			logger.Error("Analysis failed", zap.Error(err))
			res.Result = &protocol.Analysis{Error: core.UserMessage(err)}
			return res
		}
		res.Success = true
		res.Result = &protocol.Analysis{
			IsFraudulent: result.IsFraudulent,
			Score:        result.Score,
			Details:      result.Details,
		}

	case protocol.ActionLogout:
		if err := r.service.Logout(ctx); err != nil {
			logger.Error("Logout failed", zap.Error(err))
			res.Error = core.UserMessage(err)
			return res
		}
		res.Success = true
	}

	return res
}

func (r *Relay) emit(ctx context.Context, res protocol.ResultMessage) {
	payload, err := protocol.EncodeResult(res)
	if err != nil {
		r.logger.Error("Failed to encode result", zap.Error(err))
		return
	}

	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	if err := r.bus.Publish(emitCtx, r.topics.Results, payload); err != nil {
		r.logger.Error("Failed to emit result",
			zap.String("action", string(res.Action)),
			zap.String("request_id", res.RequestID),
			zap.Error(err))
	}
}

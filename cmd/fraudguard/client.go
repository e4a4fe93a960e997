package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/core"
	"github.com/mikey/fraudguard/internal/di"
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/factory"
	"github.com/mikey/fraudguard/internal/ports"
	"github.com/mikey/fraudguard/internal/relay"
)

// client holds what commands need to talk to the relay
type client struct {
	dig.In

	Config     *config.Config
	Logger     *zap.Logger
	Bus        bus.Bus
	BusFactory *factory.BusFactory
	Relay      *relay.Relay
	Requester  *bus.Requester
	Store      ports.Store
	Sessions   *core.SessionStore
	Extractor  *extractor.Extractor
}

// invoke builds the container and calls fn with its dependencies
func invoke(fn any) error {
	container, err := di.BuildCLIContainer(&flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(fn)
}

// withClient starts the requester, and an in-process relay when the bus
// is local, then runs fn. Everything is stopped when fn returns.
func withClient(cmd *cobra.Command, serveLocal bool, fn func(ctx context.Context, c client) error) error {
	return invoke(func(c client) error {
		defer c.Logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runCtx, cancel := context.WithCancel(ctx)
		relayDone := make(chan struct{})
		defer func() {
			cancel()
			<-relayDone
			if err := c.Bus.Close(); err != nil {
				c.Logger.Warn("Failed to close bus", zap.Error(err))
			}
			if err := c.Store.Close(); err != nil {
				c.Logger.Warn("Failed to close store", zap.Error(err))
			}
		}()

		if serveLocal || c.BusFactory.IsLocal() {
			actions, err := c.Relay.Subscribe(runCtx)
			if err != nil {
				close(relayDone)
				return fmt.Errorf("failed to start relay: %w", err)
			}
			go func() {
				defer close(relayDone)
				c.Relay.Serve(runCtx, actions)
			}()
		} else {
			close(relayDone)
		}

		if err := c.Requester.Start(runCtx); err != nil {
			return fmt.Errorf("failed to start requester: %w", err)
		}

		return fn(runCtx, c)
	})
}

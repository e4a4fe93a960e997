package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/di"
	"github.com/mikey/fraudguard/internal/factory"
	"github.com/mikey/fraudguard/internal/ports"
	"github.com/mikey/fraudguard/internal/relay"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (default: search standard locations)")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

type deps struct {
	dig.In

	Logger        *zap.Logger
	Relay         *relay.Relay
	Requester     *bus.Requester
	Bus           bus.Bus
	Store         ports.Store
	IntakeFactory *factory.IntakeFactory
}

// run is the main application function that gets all dependencies injected
func run(d deps) error {
	logger := d.Logger
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Subscribe before anything can publish
	actions, err := d.Relay.Subscribe(ctx)
	if err != nil {
		shutdown(logger, d.Bus, d.Store)
		return fmt.Errorf("failed to subscribe relay: %w", err)
	}
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		d.Relay.Serve(ctx, actions)
	}()

	intake, err := startIntake(ctx, d)
	if err != nil {
		stop()
		<-relayDone
		shutdown(logger, d.Bus, d.Store)
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if intake != nil {
		if err := intake.Stop(); err != nil {
			logger.Error("Failed to stop intake", zap.Error(err))
		}
	}

	<-relayDone
	shutdown(logger, d.Bus, d.Store)

	logger.Info("Shutdown complete")
	return nil
}

// startIntake returns a nil intake when it is disabled
func startIntake(ctx context.Context, d deps) (ports.Intake, error) {
	intake, err := d.IntakeFactory.CreateIntake()
	if errors.Is(err, factory.ErrIntakeDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.Requester.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start requester: %w", err)
	}
	if err := intake.Start(); err != nil {
		return nil, fmt.Errorf("failed to start intake: %w", err)
	}
	return intake, nil
}

func shutdown(logger *zap.Logger, b bus.Bus, s ports.Store) {
	if err := b.Close(); err != nil {
		logger.Error("Failed to close bus", zap.Error(err))
	}
	if err := s.Close(); err != nil {
		logger.Error("Failed to close store", zap.Error(err))
	}
}

package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/core"
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/factory"
	"github.com/mikey/fraudguard/internal/logging"
	"github.com/mikey/fraudguard/internal/ports"
	"github.com/mikey/fraudguard/internal/relay"
	"github.com/mikey/fraudguard/internal/utils"
)

const connectTimeout = 10 * time.Second

// BuildContainer creates and configures a dependency injection container
// for the relay daemon. An empty configPath searches the default locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideServices registers everything below configuration and logging
func provideServices(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewBusFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewAPIFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return err
	}

	// Register text processing
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory, tp *utils.TextProcessor) *extractor.Extractor {
		return f.CreateExtractor(tp)
	}); err != nil {
		return err
	}

	// Register session store
	if err := container.Provide(func(f *factory.StoreFactory) (ports.Store, error) {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return f.CreateStore(ctx)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(s ports.Store) *core.SessionStore {
		return core.NewSessionStore(s)
	}); err != nil {
		return err
	}

	// Register remote API client
	if err := container.Provide(func(f *factory.APIFactory) (core.GuardAPI, error) {
		return f.CreateClient()
	}); err != nil {
		return err
	}

	// Register guard service
	if err := container.Provide(func(
		api core.GuardAPI,
		sessions *core.SessionStore,
		logger *zap.Logger,
		tp *utils.TextProcessor,
		cfg *config.Config,
	) *core.GuardService {
		return core.NewGuardService(api, sessions, logger, tp, cfg.GetAnalysis().MaxBodySize)
	}); err != nil {
		return err
	}

	// Register bus
	if err := container.Provide(func(f *factory.BusFactory) (bus.Bus, error) {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return f.CreateBus(ctx)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.BusFactory) bus.Topics {
		return f.Topics()
	}); err != nil {
		return err
	}
	if err := container.Provide(bus.NewRequester); err != nil {
		return err
	}

	// Register relay
	if err := container.Provide(func(
		b bus.Bus,
		topics bus.Topics,
		service *core.GuardService,
		logger *zap.Logger,
		cfg *config.Config,
	) *relay.Relay {
		return relay.New(b, topics, service, logger, cfg.GetRelay().MaxInFlight)
	}); err != nil {
		return err
	}

	return nil
}

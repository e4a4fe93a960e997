package factory

import (
	"context"
	"fmt"

	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/config"
	"go.uber.org/zap"
)

// BusFactory creates message buses based on configuration
type BusFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBusFactory creates a new bus factory
func NewBusFactory(cfg *config.Config, logger *zap.Logger) *BusFactory {
	return &BusFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBus creates a bus based on the configuration
func (f *BusFactory) CreateBus(ctx context.Context) (bus.Bus, error) {
	busCfg := f.cfg.GetBus()

	switch busCfg.Type {
	case "memory":
		return bus.NewMemoryBus(f.logger, busCfg.Buffer), nil
	case "redis":
		return bus.NewRedisBusFromAddr(ctx, busCfg.RedisAddr, f.logger, busCfg.Buffer)
	default:
		return nil, fmt.Errorf("unsupported bus type: %s", busCfg.Type)
	}
}

// Topics returns the configured topic names
func (f *BusFactory) Topics() bus.Topics {
	return bus.NewTopics(f.cfg.GetBus().Prefix)
}

// IsLocal reports whether the relay must run in the same process as its clients
func (f *BusFactory) IsLocal() bool {
	return f.cfg.GetBus().Type == "memory"
}

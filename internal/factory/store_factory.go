package factory

import (
	"context"
	"fmt"

	"github.com/mikey/fraudguard/internal/adapters/store"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/ports"
	"go.uber.org/zap"
)

// StoreFactory creates session stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a store based on the configuration
func (f *StoreFactory) CreateStore(ctx context.Context) (ports.Store, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		f.logger.Warn("Using in-memory session store, sessions end with the process")
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		return store.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(storeCfg.MySQLDSN, f.logger)
	case "redis":
		return store.NewRedisStoreFromAddr(ctx, storeCfg.RedisAddr, storeCfg.RedisPrefix, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

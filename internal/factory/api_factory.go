package factory

import (
	"fmt"
	"net/url"

	"github.com/mikey/fraudguard/internal/adapters/api"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/core"
	"go.uber.org/zap"
)

// APIFactory creates remote API clients
type APIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAPIFactory creates a new API factory
func NewAPIFactory(cfg *config.Config, logger *zap.Logger) *APIFactory {
	return &APIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates the API client for the configured base URL
func (f *APIFactory) CreateClient() (core.GuardAPI, error) {
	apiCfg, err := f.cfg.GetAPI()
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(apiCfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api.base_url %q", apiCfg.BaseURL)
	}

	f.logger.Info("Using remote API",
		zap.String("base_url", apiCfg.BaseURL),
		zap.Duration("timeout", apiCfg.Timeout))

	return api.NewClient(apiCfg.BaseURL, apiCfg.Timeout, f.logger), nil
}

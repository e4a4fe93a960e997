package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/logging"
)

// CLIFlags contains the global command line flags of the client
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool
	LogFile    string

	// Overrides, applied when non-empty
	APIURL    string
	StoreType string
	BusType   string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		if flags.LogFile != "" {
			return logging.InitFileLogger(flags.LogFile, flags.Verbose, flags.JSONLog)
		}
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		applyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags lets command line flags override the configuration
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	if flags.APIURL != "" {
		v.Set("api.base_url", flags.APIURL)
	}
	if flags.StoreType != "" {
		v.Set("store.type", flags.StoreType)
	}
	if flags.BusType != "" {
		v.Set("bus.type", flags.BusType)
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return Load("")
}

// Load reads the configuration from path, or searches the default
// locations when path is empty
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/fraudguard/")
		v.AddConfigPath("$HOME/.fraudguard")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("FRAUDGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Remote API
	v.SetDefault("api.base_url", "https://nest.web-gine.fr")
	v.SetDefault("api.timeout", "0s")

	// Session store
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "$HOME/.fraudguard/session.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/fraudguard")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", "fraudguard:store")

	// Message bus
	v.SetDefault("bus.type", "memory")
	v.SetDefault("bus.redis_addr", "localhost:6379")
	v.SetDefault("bus.prefix", "fraudguard")
	v.SetDefault("bus.buffer", 64)

	// Relay
	v.SetDefault("relay.max_in_flight", 16)

	// Analysis
	v.SetDefault("analysis.max_body_size", 0)

	// SMTP intake
	v.SetDefault("intake.enabled", false)
	v.SetDefault("intake.listen_address", "127.0.0.1:10026")
	v.SetDefault("intake.block_fraud", false)
	v.SetDefault("intake.forward_address", "")
	v.SetDefault("intake.timeout", "30s")
	v.SetDefault("intake.trusted_domains", []string{})
	v.SetDefault("intake.headers.status", "X-Fraud-Status")
	v.SetDefault("intake.headers.score", "X-Fraud-Score")
	v.SetDefault("intake.headers.error", "X-Fraud-Error")

	// UI
	v.SetDefault("ui.theme", "light")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	raw := c.GetString(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

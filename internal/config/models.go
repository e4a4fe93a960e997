package config

import (
	"os"
	"time"
)

// APIConfig represents the remote classification service
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StoreConfig represents the session store backend
type StoreConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	RedisAddr   string
	RedisPrefix string
}

// BusConfig represents the message bus between UI and relay
type BusConfig struct {
	Type      string
	RedisAddr string
	Prefix    string
	Buffer    int
}

// RelayConfig represents the relay dispatcher
type RelayConfig struct {
	MaxInFlight int
}

// IntakeConfig represents the SMTP intake
type IntakeConfig struct {
	Enabled        bool
	ListenAddress  string
	BlockFraud     bool
	ForwardAddress string
	Timeout        time.Duration
	TrustedDomains []string
	StatusHeader   string
	ScoreHeader    string
	ErrorHeader    string
}

// LoggingConfig represents the logger setup
type LoggingConfig struct {
	Level  string
	Format string
}

// GetAPI returns the API configuration
func (c *Config) GetAPI() (APIConfig, error) {
	timeout, err := c.GetDuration("api.timeout")
	if err != nil {
		return APIConfig{}, err
	}
	return APIConfig{
		BaseURL: c.GetString("api.base_url"),
		Timeout: timeout,
	}, nil
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  os.ExpandEnv(c.GetString("store.sqlite_path")),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		RedisAddr:   c.GetString("store.redis_addr"),
		RedisPrefix: c.GetString("store.redis_prefix"),
	}
}

// GetBus returns the bus configuration
func (c *Config) GetBus() BusConfig {
	return BusConfig{
		Type:      c.GetString("bus.type"),
		RedisAddr: c.GetString("bus.redis_addr"),
		Prefix:    c.GetString("bus.prefix"),
		Buffer:    c.GetInt("bus.buffer"),
	}
}

// GetRelay returns the relay configuration
func (c *Config) GetRelay() RelayConfig {
	return RelayConfig{
		MaxInFlight: c.GetInt("relay.max_in_flight"),
	}
}

// GetIntake returns the SMTP intake configuration
func (c *Config) GetIntake() (IntakeConfig, error) {
	timeout, err := c.GetDuration("intake.timeout")
	if err != nil {
		return IntakeConfig{}, err
	}
	return IntakeConfig{
		Enabled:        c.GetBool("intake.enabled"),
		ListenAddress:  c.GetString("intake.listen_address"),
		BlockFraud:     c.GetBool("intake.block_fraud"),
		ForwardAddress: c.GetString("intake.forward_address"),
		Timeout:        timeout,
		TrustedDomains: c.GetStringSlice("intake.trusted_domains"),
		StatusHeader:   c.GetString("intake.headers.status"),
		ScoreHeader:    c.GetString("intake.headers.score"),
		ErrorHeader:    c.GetString("intake.headers.error"),
	}, nil
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}

// AnalysisConfig represents the preprocessing applied before classification
type AnalysisConfig struct {
	MaxBodySize int
}

// UIConfig represents the terminal UI
type UIConfig struct {
	Theme string
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MaxBodySize: c.GetInt("analysis.max_body_size"),
	}
}

// GetUI returns the UI configuration
func (c *Config) GetUI() UIConfig {
	return UIConfig{
		Theme: c.GetString("ui.theme"),
	}
}

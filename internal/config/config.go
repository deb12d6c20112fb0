package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Callback CallbackConfig `mapstructure:"callback" validate:"required"`
	Renderer RendererConfig `mapstructure:"renderer"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains the connection settings for the PostgreSQL database
// holding the generation log and the user registry.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// RedisConfig contains the connection settings for the task store.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// KeyPrefix namespaces every key written by this deployment.
	KeyPrefix string `mapstructure:"key_prefix" validate:"required,excludesall=*?[]"`
}

// WorkerConfig controls the lease-based poller.
type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	LeaseTTL     time.Duration `mapstructure:"lease_ttl" validate:"gtefield=PollInterval"`
	ResultTTL    time.Duration `mapstructure:"result_ttl" validate:"gt=0"`
	// MaxInFlight caps concurrent executions per process. Zero means unbounded.
	MaxInFlight int `mapstructure:"max_in_flight" validate:"gte=0"`
}

// CallbackConfig controls webhook delivery.
type CallbackConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// RendererConfig controls the built-in document renderer.
type RendererConfig struct {
	// OutputDir receives placeholder documents. Empty disables file output.
	OutputDir string `mapstructure:"output_dir"`
	// SimulatedLatency is applied to formats that are not written to disk.
	SimulatedLatency time.Duration `mapstructure:"simulated_latency" validate:"gte=0"`
}

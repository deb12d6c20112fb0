package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "DOCGEN"

// keys lists every configuration key so that environment variables are bound
// even when no config file mentions them.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"redis.url",
	"redis.key_prefix",
	"worker.poll_interval",
	"worker.lease_ttl",
	"worker.result_ttl",
	"worker.max_in_flight",
	"callback.timeout",
	"renderer.output_dir",
	"renderer.simulated_latency",
}

// setDefaults registers default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key_prefix", "docgen")
	v.SetDefault("worker.poll_interval", 5*time.Second)
	v.SetDefault("worker.lease_ttl", 60*time.Second)
	v.SetDefault("worker.result_ttl", time.Hour)
	v.SetDefault("worker.max_in_flight", 0)
	v.SetDefault("callback.timeout", 10*time.Second)
	v.SetDefault("renderer.output_dir", "")
	v.SetDefault("renderer.simulated_latency", 3*time.Second)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file when path is
// non-empty. Without a path, config.yaml is looked up in the working directory
// and silently skipped when absent.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

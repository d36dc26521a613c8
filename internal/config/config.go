// Package config loads the server configuration from defaults, an optional
// YAML file, and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig configures the TCP file server.
type ServerConfig struct {
	// Addr is the listen address for the file server.
	Addr string `yaml:"addr"`
	// Pages is the directory the served HTML pages are read from.
	Pages string `yaml:"pages"`
	// Sleep is how long the /sleep route stalls before responding.
	Sleep Duration `yaml:"sleep"`
	// AcceptRate throttles accepted connections per second; 0 disables it.
	AcceptRate float64 `yaml:"accept_rate"`
}

// PoolConfig configures the worker pool behind the server.
type PoolConfig struct {
	Size          int  `yaml:"size"`
	IsolatePanics bool `yaml:"isolate_panics"`
	PinWorkers    bool `yaml:"pin_workers"`
}

// AdminConfig configures the observability endpoint.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Pool   PoolConfig   `yaml:"pool"`
	Admin  AdminConfig  `yaml:"admin"`
	Log    LogConfig    `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:  "127.0.0.1:7878",
			Pages: "pages",
			Sleep: Duration(5 * time.Second),
		},
		Pool: PoolConfig{
			Size: 16,
		},
		Admin: AdminConfig{
			Addr: "127.0.0.1:9091",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if
// one is given, then DRAINPOOL_* environment overrides. The result is
// validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays DRAINPOOL_* environment variables onto the config.
func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("DRAINPOOL_ADDR", c.Server.Addr)
	c.Server.Pages = getEnv("DRAINPOOL_PAGES", c.Server.Pages)
	c.Admin.Addr = getEnv("DRAINPOOL_ADMIN_ADDR", c.Admin.Addr)
	c.Log.Level = getEnv("DRAINPOOL_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DRAINPOOL_LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("DRAINPOOL_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pool.Size = n
		}
	}
	if v := os.Getenv("DRAINPOOL_SLEEP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Server.Sleep = Duration(d)
		}
	}
}

// Validate rejects configurations the rest of the system would refuse
// anyway, so bad values fail at startup rather than at first use.
func (c *Config) Validate() error {
	if c.Pool.Size <= 0 {
		return fmt.Errorf("pool.size must be positive, got %d", c.Pool.Size)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.Pages == "" {
		return fmt.Errorf("server.pages must not be empty")
	}
	if c.Server.AcceptRate < 0 {
		return fmt.Errorf("server.accept_rate must not be negative, got %v", c.Server.AcceptRate)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

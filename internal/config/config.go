// Package config provides configuration loading for embedd.
//
// Values come from hardcoded defaults, an optional YAML file and environment
// variables, in increasing order of precedence. See LoadWithFile.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Config holds the complete embedd configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	FastEmbed FastEmbedConfig `koanf:"fastembed"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// DispatchConfig sizes the worker pool.
type DispatchConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// FastEmbedConfig configures the local ONNX backend.
type FastEmbedConfig struct {
	CacheDir    string `koanf:"cache_dir"`
	MaxLength   int    `koanf:"max_length"`
	BatchSize   int    `koanf:"batch_size"`
	ONNXVersion string `koanf:"onnx_version"`
}

// GRPCConfig configures the remote TEI backend.
type GRPCConfig struct {
	Endpoint string `koanf:"endpoint"`
	APIKey   Secret `koanf:"api_key"`
}

// LoggingConfig is the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig is the subset of OpenTelemetry settings exposed to users.
type TelemetryConfig struct {
	Enabled        bool    `koanf:"enabled"`
	Endpoint       string  `koanf:"endpoint"`
	Protocol       string  `koanf:"protocol"`
	Insecure       bool    `koanf:"insecure"`
	ServiceVersion string  `koanf:"service_version"`
	SampleRate     float64 `koanf:"sample_rate"`
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = int(cfg.Server.RateLimit)
		if cfg.Server.RateBurst < 1 {
			cfg.Server.RateBurst = 1
		}
	}

	if cfg.Dispatch.Workers == 0 {
		cfg.Dispatch.Workers = 4
	}
	if cfg.Dispatch.QueueSize == 0 {
		cfg.Dispatch.QueueSize = cfg.Dispatch.Workers
	}

	if cfg.FastEmbed.CacheDir == "" {
		cfg.FastEmbed.CacheDir = "./fastembed_models"
	}
	if cfg.FastEmbed.MaxLength == 0 {
		cfg.FastEmbed.MaxLength = 512
	}
	if cfg.FastEmbed.BatchSize == 0 {
		cfg.FastEmbed.BatchSize = 256
	}
	if cfg.FastEmbed.ONNXVersion == "" {
		cfg.FastEmbed.ONNXVersion = "1.23.0"
	}

	if cfg.GRPC.Endpoint == "" {
		cfg.GRPC.Endpoint = "127.0.0.1:50051"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = "0.1.0"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate_limit cannot be negative: %v", c.Server.RateLimit)
	}

	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch workers must be >= 1, got %d", c.Dispatch.Workers)
	}
	if c.Dispatch.QueueSize < 0 {
		return fmt.Errorf("dispatch queue_size cannot be negative: %d", c.Dispatch.QueueSize)
	}

	if c.FastEmbed.MaxLength < 1 {
		return fmt.Errorf("fastembed max_length must be >= 1, got %d", c.FastEmbed.MaxLength)
	}
	if c.FastEmbed.BatchSize < 1 {
		return fmt.Errorf("fastembed batch_size must be >= 1, got %d", c.FastEmbed.BatchSize)
	}

	if _, _, err := net.SplitHostPort(c.GRPC.Endpoint); err != nil {
		return fmt.Errorf("grpc endpoint %q must be host:port: %w", c.GRPC.Endpoint, err)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("telemetry protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
		}
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
	}

	return nil
}

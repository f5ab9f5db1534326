package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Trace      TraceConfig      `yaml:"trace"`
	Downstream DownstreamConfig `yaml:"downstream"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LogConfig        `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// TraceConfig holds span export pipeline configuration.
type TraceConfig struct {
	// Exporter selects the sink: "console", "collector", or "none"
	Exporter      string `envconfig:"TRACE_EXPORTER" default:"console" yaml:"exporter"`
	CollectorAddr string `envconfig:"TRACE_COLLECTOR_ADDR" default:"tcp://localhost:4317" yaml:"collector_addr"`
	// Batch buffers spans and flushes in the background; disabling it
	// exports each span inline on End
	Batch       bool   `envconfig:"TRACE_BATCH" default:"true" yaml:"batch"`
	QueueSize   int    `envconfig:"TRACE_QUEUE_SIZE" default:"2048" yaml:"queue_size"`
	BatchSize   int    `envconfig:"TRACE_BATCH_SIZE" default:"512" yaml:"batch_size"`
	FlushMS     int    `envconfig:"TRACE_FLUSH_MS" default:"5000" yaml:"flush_ms"`
	Environment string `envconfig:"TRACE_ENV" default:"development" yaml:"environment"`
}

// DownstreamConfig holds settings for the traced outbound dependency.
type DownstreamConfig struct {
	URL            string  `envconfig:"DOWNSTREAM_URL" default:"https://httpbin.org/delay/1" yaml:"url"`
	TimeoutSeconds int     `envconfig:"DOWNSTREAM_TIMEOUT_SECONDS" default:"10" yaml:"timeout_seconds"`
	RetryCount     int     `envconfig:"DOWNSTREAM_RETRIES" default:"2" yaml:"retries"`
	RateLimit      float64 `envconfig:"DOWNSTREAM_RATE_LIMIT" default:"0" yaml:"rate_limit"`
	BreakerEnabled bool    `envconfig:"DOWNSTREAM_BREAKER" default:"true" yaml:"breaker"`
}

// StoreConfig holds order store configuration.
type StoreConfig struct {
	QueryLatencyMS int `envconfig:"STORE_QUERY_LATENCY_MS" default:"25" yaml:"query_latency_ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from the environment, then overlays the
// YAML file at path. Keys present in the file win over environment
// values; absent keys keep them.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Trace: TraceConfig{
			Exporter:      "console",
			CollectorAddr: "tcp://localhost:4317",
			Batch:         true,
			QueueSize:     2048,
			BatchSize:     512,
			FlushMS:       5000,
			Environment:   "development",
		},
		Downstream: DownstreamConfig{
			URL:            "https://httpbin.org/delay/1",
			TimeoutSeconds: 10,
			RetryCount:     2,
			RateLimit:      0,
			BreakerEnabled: true,
		},
		Store: StoreConfig{
			QueryLatencyMS: 25,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

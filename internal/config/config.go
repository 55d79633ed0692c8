package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Worker  WorkerConfig  `yaml:"worker"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// StorageConfig holds filesystem storage configuration.
type StorageConfig struct {
	BasePath string `yaml:"base_path" envconfig:"STORAGE_PATH"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	// Count bounds concurrent fetches within one batch.
	Count int `yaml:"count" envconfig:"WORKER_COUNT"`
	// BatchWorkers is the number of batches the server runs at once.
	BatchWorkers int           `yaml:"batch_workers" envconfig:"WORKER_BATCH_WORKERS"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"WORKER_POLL_INTERVAL"`
}

// FetchConfig holds per-image download configuration.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"FETCH_USER_AGENT"`
	// MaxImageBytes caps a single download; 0 disables the limit.
	MaxImageBytes int64 `yaml:"max_image_bytes" envconfig:"FETCH_MAX_IMAGE_BYTES"`
	// MaxImagePixels caps width*height declared in an image header.
	MaxImagePixels int64 `yaml:"max_image_pixels" envconfig:"FETCH_MAX_IMAGE_PIXELS"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`
}

// Defaults.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 9848
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 5 * time.Minute
	DefaultBasePath       = "./images"
	DefaultWorkers        = 5
	DefaultBatchWorkers   = 1
	DefaultPollInterval   = time.Second
	DefaultFetchTimeout   = 10 * time.Second
	DefaultMaxImagePixels = 50_000_000
	DefaultUserAgent      = "imgrabba/1.0 (+https://github.com/iconidentify/imgrabba)"
	DefaultNamespace      = "imgrabba"
)

// Load reads configuration from an optional .env file, the config file and
// environment variables. Environment variables override file values; zero
// values are filled with defaults afterwards.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from path when it exists. Variables already set
// in the process environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = DefaultBasePath
	}
	if c.Worker.Count == 0 {
		c.Worker.Count = DefaultWorkers
	}
	if c.Worker.BatchWorkers == 0 {
		c.Worker.BatchWorkers = DefaultBatchWorkers
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = DefaultPollInterval
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = DefaultUserAgent
	}
	if c.Fetch.MaxImagePixels == 0 {
		c.Fetch.MaxImagePixels = DefaultMaxImagePixels
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Storage.BasePath == "" {
		return fmt.Errorf("STORAGE_PATH is required")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.Worker.Count)
	}
	if c.Worker.BatchWorkers < 1 {
		return fmt.Errorf("WORKER_BATCH_WORKERS must be positive, got %d", c.Worker.BatchWorkers)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.MaxImageBytes < 0 {
		return fmt.Errorf("FETCH_MAX_IMAGE_BYTES cannot be negative")
	}
	if c.Fetch.MaxImagePixels < 0 {
		return fmt.Errorf("FETCH_MAX_IMAGE_PIXELS cannot be negative")
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

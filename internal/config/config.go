// Package config provides configuration loading and management for the sync agent.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/kurum-rebirth/kurum-sync/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables read through viper
const EnvPrefix = "KURUM"

const (
	// StorageTypeS3 stores backups in an S3 bucket
	StorageTypeS3 = "s3"

	// StorageTypeMinio stores backups in a MinIO (or other S3 compatible) bucket
	StorageTypeMinio = "minio"

	// StorageTypeLocal stores backups in a local or mounted directory
	StorageTypeLocal = "local"
)

const (
	// DefaultDataDir is the data root used when none is configured
	DefaultDataDir = "./data"

	// DefaultPollInterval is the interval between two polling ticks
	DefaultPollInterval = 10 * time.Second

	// DefaultStatusAddress is the listen address of the status server
	DefaultStatusAddress = "127.0.0.1:8085"

	// KeyringService is the OS keyring service holding storage secrets
	KeyringService = "kurum-sync"

	// minioSecretEnvVar is consulted when no secret file is configured
	minioSecretEnvVar = "KURUM_MINIO_SECRET_ACCESS_KEY"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure of the agent
type Config struct {
	// DataDir is the root directory holding sync configs, user settings,
	// markers, status records and temporary archives
	DataDir string `yaml:"dataDir,omitempty"`

	// PollInterval is the polling cadence (e.g., "10s", "1m")
	PollInterval string `yaml:"pollInterval,omitempty"`

	// Platform overrides the detected host platform identifier
	Platform string `yaml:"platform,omitempty"`

	// Storage selects and configures the remote storage backend.
	// When nil the agent runs unauthorized and every tick is a no-op.
	Storage *StorageConfig `yaml:"storage,omitempty"`

	// StatusServer configures the local status HTTP endpoint
	StatusServer *StatusServerConfig `yaml:"statusServer,omitempty"`

	// Telemetry configures OpenTelemetry tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// StorageConfig defines the remote storage backend
type StorageConfig struct {
	// Type is one of s3, minio or local
	Type  string       `yaml:"type"`
	S3    *S3Config    `yaml:"s3,omitempty"`
	Minio *MinioConfig `yaml:"minio,omitempty"`
	Local *LocalConfig `yaml:"local,omitempty"`
	Retry *RetryConfig `yaml:"retry,omitempty"`
}

// S3Config defines an AWS S3 backend. Credentials come from the SDK default chain.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region,omitempty"`

	// Prefix is prepended to every object key
	Prefix string `yaml:"prefix,omitempty"`

	// Endpoint overrides the service endpoint (e.g., for localstack)
	Endpoint       string `yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `yaml:"forcePathStyle,omitempty"`
}

// MinioConfig defines a MinIO backend
type MinioConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Bucket      string `yaml:"bucket"`
	AccessKeyID string `yaml:"accessKeyID"`

	// SecretAccessKeyFile is the path to a file containing the secret key.
	// The KURUM_MINIO_SECRET_ACCESS_KEY environment variable is used otherwise.
	SecretAccessKeyFile string `yaml:"secretAccessKeyFile,omitempty"`

	UseSSL bool   `yaml:"useSSL,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// LocalConfig defines a filesystem backend rooted at Root
type LocalConfig struct {
	Root string `yaml:"root"`
}

// RetryConfig controls retries of transient storage failures
type RetryConfig struct {
	// MaxTries is the total number of attempts per storage call
	MaxTries uint `yaml:"maxTries,omitempty"`

	// MaxElapsed bounds the total time spent retrying (e.g., "30s")
	MaxElapsed string `yaml:"maxElapsed,omitempty"`
}

// GetMaxElapsed returns MaxElapsed as a duration, or zero when unset or invalid
func (r *RetryConfig) GetMaxElapsed() time.Duration {
	if r.MaxElapsed == "" {
		return 0
	}
	d, err := time.ParseDuration(r.MaxElapsed)
	if err != nil {
		return 0
	}
	return d
}

// StatusServerConfig defines the local status HTTP server
type StatusServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address,omitempty"`
}

// GetSecretAccessKey returns the MinIO secret key using the following priority:
// 1. Read from SecretAccessKeyFile if specified
// 2. Read from KURUM_MINIO_SECRET_ACCESS_KEY environment variable
// 3. Read from the OS keyring (service "kurum-sync", user AccessKeyID)
func (m *MinioConfig) GetSecretAccessKey() (string, error) {
	if m.SecretAccessKeyFile != "" {
		cleanPath := filepath.Clean(m.SecretAccessKeyFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret access key from file %s: %w", m.SecretAccessKeyFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envSecret := os.Getenv(minioSecretEnvVar); envSecret != "" {
		return envSecret, nil
	}

	if m.AccessKeyID != "" {
		secret, err := keyring.Get(KeyringService, m.AccessKeyID)
		if err == nil && secret != "" {
			return secret, nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("Keyring lookup failed", "service", KeyringService, "error", err)
		}
	}

	return "", fmt.Errorf(
		"no minio secret access key configured: set secretAccessKeyFile, %s or a keyring entry for %s",
		minioSecretEnvVar, KeyringService,
	)
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetDataDir returns the data root, using DefaultDataDir if not specified
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir
	}
	return c.DataDir
}

// GetPollInterval returns the polling interval, falling back to DefaultPollInterval
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval == "" {
		return DefaultPollInterval
	}
	interval, err := time.ParseDuration(c.PollInterval)
	if err != nil || interval <= 0 {
		slog.Warn("Invalid poll interval, using default",
			"interval", c.PollInterval,
			"default", DefaultPollInterval)
		return DefaultPollInterval
	}
	return interval
}

// GetPlatform returns the platform identifier used to select PlatformSyncOptions
func (c *Config) GetPlatform() string {
	if c.Platform == "" {
		return runtime.GOOS
	}
	return c.Platform
}

// GetStatusAddress returns the status server listen address
func (c *Config) GetStatusAddress() string {
	if c.StatusServer == nil || c.StatusServer.Address == "" {
		return DefaultStatusAddress
	}
	return c.StatusServer.Address
}

// StatusServerEnabled reports whether the status server should be started
func (c *Config) StatusServerEnabled() bool {
	return c.StatusServer != nil && c.StatusServer.Enabled
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.PollInterval != "" {
		interval, err := time.ParseDuration(c.PollInterval)
		if err != nil {
			return fmt.Errorf("pollInterval: invalid duration %q: %w", c.PollInterval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("pollInterval: must be positive, got %s", c.PollInterval)
		}
	}

	if c.Storage != nil {
		if err := c.Storage.validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validate validates the storage configuration for the selected type
func (s *StorageConfig) validate() error {
	switch s.Type {
	case StorageTypeS3:
		if s.S3 == nil {
			return fmt.Errorf("s3 configuration is required for type %s", s.Type)
		}
		if s.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required")
		}
	case StorageTypeMinio:
		if s.Minio == nil {
			return fmt.Errorf("minio configuration is required for type %s", s.Type)
		}
		if s.Minio.Endpoint == "" {
			return fmt.Errorf("minio.endpoint is required")
		}
		if s.Minio.Bucket == "" {
			return fmt.Errorf("minio.bucket is required")
		}
	case StorageTypeLocal:
		if s.Local == nil || s.Local.Root == "" {
			return fmt.Errorf("local.root is required")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unsupported type %q", s.Type)
	}

	if s.Retry != nil && s.Retry.MaxElapsed != "" {
		if _, err := time.ParseDuration(s.Retry.MaxElapsed); err != nil {
			return fmt.Errorf("retry.maxElapsed: invalid duration %q: %w", s.Retry.MaxElapsed, err)
		}
	}

	return nil
}

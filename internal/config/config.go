package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains settings for validating admin bearer tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// StorageConfig contains the object store (S3-compatible) settings.
type StorageConfig struct {
	Bucket          string        `mapstructure:"bucket" validate:"required"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	OpTimeout       time.Duration `mapstructure:"op_timeout" validate:"required,gt=0"`
}

// CleanupConfig contains the media garbage-collection pipeline settings.
type CleanupConfig struct {
	// GracePeriod is the delay between a media item becoming orphaned and
	// becoming eligible for permanent deletion.
	GracePeriod time.Duration `mapstructure:"grace_period" validate:"required,gt=0"`

	// BatchSize bounds how many reclaimable items a single cleanup run processes.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// Interval is how often a full cleanup job (orphan sweep + reclamation)
	// is scheduled.
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0"`

	// OrphanScanInterval is how often the standalone orphan sweep is scheduled.
	OrphanScanInterval time.Duration `mapstructure:"orphan_scan_interval" validate:"required,gt=0"`

	// MaxAttempts is how many times a failed cleanup job is attempted
	// before being marked failed.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// InitialBackoff is the first retry delay; subsequent retries double it.
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"required,gt=0"`
}

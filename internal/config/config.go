package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the per-user configuration directory
	DefaultConfigDir = ".timecapsule"
	// EnvPrefix prefixes every environment override, e.g. TIMECAPSULE_SERVER_PORT
	EnvPrefix = "TIMECAPSULE"
)

// Load reads config.{yaml,json} from the working directory or
// ~/.timecapsule, falling back to defaults when no file exists.
// Environment variables override both.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, DefaultConfigDir))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.public_url", "http://localhost:5001")
	v.SetDefault("server.read_timeout_seconds", 60)
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.provider", ProviderFilesystem)
	v.SetDefault("storage.filesystem_path", "./data/objects")
	v.SetDefault("storage.sqlite_path", "./data/objects.db")
	v.SetDefault("storage.timeout_seconds", 30)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.account_id", "")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.force_path_style", false)
	v.SetDefault("storage.s3.public_base_url", "")

	// Memory pipeline defaults
	v.SetDefault("memory.max_photos", 50)
	v.SetDefault("memory.upload_concurrency", 4)
	v.SetDefault("memory.request_timeout_seconds", 120)
	v.SetDefault("memory.rollback_on_failure", true)

	// Collage defaults
	v.SetDefault("collage.cell_size", 300)
	v.SetDefault("collage.border", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", cfg.Server.MaxUploadMB)
	}

	switch cfg.Storage.Provider {
	case ProviderFilesystem:
		if cfg.Storage.FilesystemPath == "" {
			return fmt.Errorf("storage.filesystem_path is required when provider is 'filesystem'")
		}
	case ProviderSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required when provider is 'sqlite'")
		}
	case ProviderS3, ProviderMinIO, ProviderAWS, ProviderR2:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when provider is '%s'", cfg.Storage.Provider)
		}
		if cfg.Storage.Provider == ProviderR2 && cfg.Storage.S3.AccountID == "" {
			return fmt.Errorf("storage.s3.account_id is required when provider is 'r2'")
		}
		if (cfg.Storage.Provider == ProviderS3 || cfg.Storage.Provider == ProviderMinIO) && cfg.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.endpoint is required when provider is '%s'", cfg.Storage.Provider)
		}
	default:
		return fmt.Errorf("storage.provider must be one of filesystem, sqlite, s3, minio, aws, r2, got '%s'", cfg.Storage.Provider)
	}

	if cfg.Memory.UploadConcurrency < 1 {
		return fmt.Errorf("memory.upload_concurrency must be at least 1, got %d", cfg.Memory.UploadConcurrency)
	}
	if cfg.Memory.MaxPhotos < 0 {
		return fmt.Errorf("memory.max_photos must not be negative, got %d", cfg.Memory.MaxPhotos)
	}

	if cfg.Collage.CellSize < 1 {
		return fmt.Errorf("collage.cell_size must be positive, got %d", cfg.Collage.CellSize)
	}
	if cfg.Collage.Border < 0 {
		return fmt.Errorf("collage.border must not be negative, got %d", cfg.Collage.Border)
	}

	if f := cfg.Logging.Format; f != "json" && f != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text', got '%s'", f)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	cfg, err := decode(newViperWithoutEnv())
	if err != nil {
		// defaults are static and always valid
		panic(err)
	}
	return cfg
}

func newViperWithoutEnv() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

package config

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Collage CollageConfig `mapstructure:"collage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port"`
	PublicURL           string   `mapstructure:"public_url"` // Base for URLs of locally served objects
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds"`
	MaxUploadMB         int      `mapstructure:"max_upload_mb"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects and configures the object store
type StorageConfig struct {
	Provider       string   `mapstructure:"provider"` // filesystem, sqlite, s3, minio, aws, r2
	FilesystemPath string   `mapstructure:"filesystem_path"`
	SQLitePath     string   `mapstructure:"sqlite_path"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	S3             S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible connection settings
type S3Config struct {
	Endpoint       string `mapstructure:"endpoint"`
	Bucket         string `mapstructure:"bucket"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Region         string `mapstructure:"region"`
	AccountID      string `mapstructure:"account_id"` // Cloudflare R2 only
	UseSSL         bool   `mapstructure:"use_ssl"`    // MinIO only
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	PublicBaseURL  string `mapstructure:"public_base_url"` // CDN or public bucket URL
}

// MemoryConfig tunes the creation pipeline
type MemoryConfig struct {
	MaxPhotos             int  `mapstructure:"max_photos"` // 0 means unlimited
	UploadConcurrency     int  `mapstructure:"upload_concurrency"`
	RequestTimeoutSeconds int  `mapstructure:"request_timeout_seconds"`
	RollbackOnFailure     bool `mapstructure:"rollback_on_failure"`
}

// CollageConfig holds collage geometry
type CollageConfig struct {
	CellSize int `mapstructure:"cell_size"`
	Border   int `mapstructure:"border"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// Storage providers
const (
	ProviderFilesystem = "filesystem"
	ProviderSQLite     = "sqlite"
	ProviderS3         = "s3"
	ProviderMinIO      = "minio"
	ProviderAWS        = "aws"
	ProviderR2         = "r2"
)

// IsLocal reports whether objects are served by this process under /files/.
func (s StorageConfig) IsLocal() bool {
	return s.Provider == ProviderFilesystem || s.Provider == ProviderSQLite
}

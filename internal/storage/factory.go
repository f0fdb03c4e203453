package storage

import (
	"fmt"
	"time"

	"github.com/kimhsiao/timecapsule/internal/config"
)

// New builds the Store selected by cfg.Provider. publicURL is the base
// URL of this server, used by providers whose objects are served locally.
func New(cfg config.StorageConfig, publicURL string) (Store, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	creds := Credentials{
		BucketName:    cfg.S3.Bucket,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		PublicBaseURL: cfg.S3.PublicBaseURL,
		Timeout:       timeout,
	}

	switch cfg.Provider {
	case config.ProviderFilesystem:
		return asStore(NewFileStore(cfg.FilesystemPath, publicURL))
	case config.ProviderSQLite:
		return asStore(OpenSQLiteStore(cfg.SQLitePath, publicURL))
	case config.ProviderS3:
		return asStore(NewS3Store(&S3Config{
			Endpoint:       cfg.S3.Endpoint,
			BucketName:     cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			Region:         cfg.S3.Region,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			PublicBaseURL:  cfg.S3.PublicBaseURL,
			Timeout:        timeout,
		}))
	case config.ProviderMinIO:
		return asStore(NewMinIOStore(&MinIOConfig{
			Credentials: creds,
			Endpoint:    cfg.S3.Endpoint,
			UseSSL:      cfg.S3.UseSSL,
		}))
	case config.ProviderAWS:
		return asStore(NewAWSStore(&AWSConfig{
			Credentials: creds,
			Region:      cfg.S3.Region,
		}))
	case config.ProviderR2:
		return asStore(NewR2Store(&R2Config{
			Credentials: creds,
			AccountID:   cfg.S3.AccountID,
		}))
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// asStore avoids returning a typed nil pointer inside a non-nil Store.
func asStore[T Store](store T, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return store, nil
}

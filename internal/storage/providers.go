package storage

import (
	"fmt"
	"strings"
	"time"
)

// Default AWS S3 endpoints by region.
var awsEndpoints = map[string]string{
	"us-east-1":      "s3.amazonaws.com",
	"us-east-2":      "s3.us-east-2.amazonaws.com",
	"us-west-1":      "s3.us-west-1.amazonaws.com",
	"us-west-2":      "s3.us-west-2.amazonaws.com",
	"eu-west-1":      "s3.eu-west-1.amazonaws.com",
	"eu-central-1":   "s3.eu-central-1.amazonaws.com",
	"ap-northeast-1": "s3.ap-northeast-1.amazonaws.com",
	"ap-southeast-1": "s3.ap-southeast-1.amazonaws.com",
	"ap-southeast-2": "s3.ap-southeast-2.amazonaws.com",
}

// Credentials groups the fields every S3-compatible provider needs.
type Credentials struct {
	BucketName    string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	Timeout       time.Duration
}

// MinIOConfig holds MinIO-specific configuration.
type MinIOConfig struct {
	Credentials
	Endpoint string // e.g. "localhost:9000" or "https://minio.example.com"
	UseSSL   bool   // Used only when Endpoint has no scheme
}

// NewMinIOStore creates an S3 store configured for MinIO.
// MinIO requires path-style URLs (endpoint/bucket/key).
func NewMinIOStore(config *MinIOConfig) (*S3Store, error) {
	endpoint := config.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if config.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}

	return NewS3Store(&S3Config{
		Endpoint:       strings.TrimSuffix(endpoint, "/"),
		BucketName:     config.BucketName,
		AccessKey:      config.AccessKey,
		SecretKey:      config.SecretKey,
		Region:         "us-east-1", // MinIO ignores regions but signing needs one
		ForcePathStyle: true,
		PublicBaseURL:  config.PublicBaseURL,
		Timeout:        config.Timeout,
	})
}

// AWSConfig holds AWS S3-specific configuration.
type AWSConfig struct {
	Credentials
	Region string // Default: us-east-1
}

// NewAWSStore creates an S3 store for AWS with virtual-host style URLs.
func NewAWSStore(config *AWSConfig) (*S3Store, error) {
	region := config.Region
	if region == "" {
		region = "us-east-1"
	}

	endpoint, ok := awsEndpoints[region]
	if !ok {
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", region)
	}

	return NewS3Store(&S3Config{
		Endpoint:      "https://" + endpoint,
		BucketName:    config.BucketName,
		AccessKey:     config.AccessKey,
		SecretKey:     config.SecretKey,
		Region:        region,
		PublicBaseURL: config.PublicBaseURL,
		Timeout:       config.Timeout,
	})
}

// R2Config holds Cloudflare R2-specific configuration.
type R2Config struct {
	Credentials
	AccountID string
}

// NewR2Store creates an S3 store for Cloudflare R2.
// The R2 endpoint format is: https://<accountid>.r2.cloudflarestorage.com
func NewR2Store(config *R2Config) (*S3Store, error) {
	if config.AccountID == "" {
		return nil, fmt.Errorf("r2 account id is required")
	}

	return NewS3Store(&S3Config{
		Endpoint:      fmt.Sprintf("https://%s.r2.cloudflarestorage.com", config.AccountID),
		BucketName:    config.BucketName,
		AccessKey:     config.AccessKey,
		SecretKey:     config.SecretKey,
		Region:        "auto",
		PublicBaseURL: config.PublicBaseURL,
		Timeout:       config.Timeout,
	})
}

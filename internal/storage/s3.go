package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// S3Config holds S3 connection configuration.
type S3Config struct {
	Endpoint       string // scheme://host[:port]; scheme defaults to https
	BucketName     string
	AccessKey      string
	SecretKey      string
	Region         string
	ForcePathStyle bool   // Use path-style URLs (minio, localstack)
	PublicBaseURL  string // Optional CDN/public bucket base for returned URLs
	Timeout        time.Duration
}

// S3Store implements Store for S3-compatible storage with AWS Signature V4.
type S3Store struct {
	config     *S3Config
	endpoint   *url.URL
	httpClient *http.Client
	now        func() time.Time
}

// NewS3Store creates a new S3Store.
func NewS3Store(config *S3Config) (*S3Store, error) {
	raw := config.Endpoint
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	endpoint, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid s3 endpoint %q", config.Endpoint)
	}
	if config.BucketName == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &S3Store{
		config:   config,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		now: time.Now,
	}, nil
}

// Put uploads data to S3 and returns its URL.
func (c *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := c.newRequest(ctx, http.MethodPut, key, data, contentType)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return c.PublicURL(key), nil
}

// Get downloads data from S3.
func (c *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, key, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("download failed with status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// Delete deletes an object. Deleting a missing key succeeds.
func (c *S3Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodDelete, key, nil, "")
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// Close releases idle connections.
func (c *S3Store) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// PublicURL returns the URL clients use to fetch key.
func (c *S3Store) PublicURL(key string) string {
	if c.config.PublicBaseURL != "" {
		return strings.TrimSuffix(c.config.PublicBaseURL, "/") + "/" + key
	}
	return c.objectURL(key).String()
}

// objectURL builds the path-style or virtual-host-style URL of key.
func (c *S3Store) objectURL(key string) *url.URL {
	u := *c.endpoint
	escaped := escapeKey(key)
	if c.config.ForcePathStyle {
		// Path-style: scheme://endpoint/bucket/key
		u.Path = "/" + c.config.BucketName + "/" + key
		u.RawPath = "/" + url.PathEscape(c.config.BucketName) + "/" + escaped
	} else {
		// Virtual-host-style: scheme://bucket.endpoint/key
		u.Host = c.config.BucketName + "." + c.endpoint.Host
		u.Path = "/" + key
		u.RawPath = "/" + escaped
	}
	return &u
}

// newRequest creates a signed S3 request.
func (c *S3Store) newRequest(ctx context.Context, method, key string, body []byte, contentType string) (*http.Request, error) {
	u := c.objectURL(key)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	payloadHash := hex.EncodeToString(hashSHA256(body))
	amzDate := c.now().UTC().Format("20060102T150405Z")

	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", c.authorization(method, u, payloadHash, amzDate))

	return req, nil
}

// signedHeaders lists the headers covered by the signature, sorted.
const signedHeaders = "host;x-amz-content-sha256;x-amz-date"

// authorization calculates the AWS Signature V4 Authorization header.
func (c *S3Store) authorization(method string, u *url.URL, payloadHash, amzDate string) string {
	dateStamp := amzDate[:8]
	scope := fmt.Sprintf("%s/%s/s3/aws4_request", dateStamp, c.config.Region)

	canonicalHeaders := fmt.Sprintf("host:%s\nx-amz-content-sha256:%s\nx-amz-date:%s\n",
		u.Host, payloadHash, amzDate)

	canonicalRequest := strings.Join([]string{
		method,
		u.EscapedPath(),
		u.RawQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	const algorithm = "AWS4-HMAC-SHA256"
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hex.EncodeToString(hashSHA256([]byte(canonicalRequest))),
	}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+c.config.SecretKey), dateStamp)
	kRegion := hmacSHA256(kDate, c.config.Region)
	kService := hmacSHA256(kRegion, "s3")
	kSigning := hmacSHA256(kService, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(kSigning, stringToSign))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, c.config.AccessKey, scope, signedHeaders, signature)
}

// escapeKey URI-encodes each path segment of key.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// hmacSHA256 calculates HMAC-SHA256.
func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

// hashSHA256 calculates SHA256 hash.
func hashSHA256(data []byte) []byte {
	h := sha256.New()
	h.Write(data)
	return h.Sum(nil)
}

// Package storage provides key-addressed object storage for memories.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrObjectNotFound is returned (wrapped) by Get when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Store is durable key-addressed object storage. Put returns the URL at
// which the object can be retrieved.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key layout under memories/<id>/.
const memoriesPrefix = "memories"

// MemoryPrefix returns the key prefix holding every object of a memory.
func MemoryPrefix(id string) string {
	return memoriesPrefix + "/" + id + "/"
}

// PhotoKey returns the key of the index-th uploaded photo.
func PhotoKey(id string, index int, ext string) string {
	return fmt.Sprintf("%sphoto-%d%s", MemoryPrefix(id), index, ext)
}

// CollageKey returns the key of the composed collage.
func CollageKey(id string) string {
	return MemoryPrefix(id) + "collage"
}

// MetadataKey returns the key of the JSON metadata document.
func MetadataKey(id string) string {
	return MemoryPrefix(id) + "metadata"
}

// ValidateKey rejects keys that could escape a provider's namespace.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty object key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("invalid object key %q", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("invalid object key %q", key)
		}
	}
	return nil
}

// localURL builds the URL of an object served by this process under /files/.
func localURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/files/" + key
}

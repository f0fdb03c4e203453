// Package media provides content sniffing for uploaded photos and stored objects.
package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Info describes sniffed content.
type Info struct {
	ContentType string // e.g. "image/jpeg"
	Extension   string // with leading dot, e.g. ".jpg"; may be empty
}

// IsImage reports whether the content type is an image type.
func (i Info) IsImage() bool {
	return strings.HasPrefix(i.ContentType, "image/")
}

// Detect sniffs data. The filename extension is only used when the
// content itself does not reveal a more specific type.
func Detect(data []byte, filename string) Info {
	mt := mimetype.Detect(data)

	info := Info{
		ContentType: mt.String(),
		Extension:   mt.Extension(),
	}

	if mt.Is("application/octet-stream") || mt.Is("text/plain") {
		if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
			if byExt := mimetype.Lookup(contentTypeForExt(ext)); byExt != nil {
				info.ContentType = byExt.String()
			}
			info.Extension = ext
		}
	}

	return info
}

// contentTypeForExt maps common photo extensions when sniffing fails.
func contentTypeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}

// ImageMetadata represents basic decoded image properties.
type ImageMetadata struct {
	Width  int
	Height int
	Format string
}

// Inspect reads the image header without decoding pixels.
func Inspect(data []byte) (*ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &ImageMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}

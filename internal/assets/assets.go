// Package assets stores uploaded project images on local disk or S3.
package assets

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/folio-studio/folio/internal/shared"
)

// MaxImageBytes caps the size of an uploaded image.
const MaxImageBytes = 5 << 20

// imageTypes lists accepted image MIME types with their canonical extension.
var imageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// Store persists an object and returns its public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// Image is a validated upload ready to store.
type Image struct {
	ContentType string
	Extension   string
	Content     []byte
}

// DetectImage sniffs content and accepts only the supported image types.
// The filename is never trusted for the type.
func DetectImage(content []byte) (Image, error) {
	if len(content) == 0 {
		return Image{}, shared.NewValidationError("image", "file is empty")
	}
	if len(content) > MaxImageBytes {
		return Image{}, shared.NewValidationError("image", fmt.Sprintf("file exceeds %d MiB", MaxImageBytes>>20))
	}
	detected := mimetype.Detect(content)
	for mime := detected; mime != nil; mime = mime.Parent() {
		base := strings.SplitN(mime.String(), ";", 2)[0]
		if ext, ok := imageTypes[base]; ok {
			return Image{ContentType: base, Extension: ext, Content: content}, nil
		}
	}
	return Image{}, shared.NewValidationError("image", "unsupported file type "+detected.String())
}

// ObjectKey builds a collision-free key under prefix.
func ObjectKey(prefix string, img Image) string {
	return path.Join(prefix, uuid.NewString()+img.Extension)
}

// KeyFromURL recovers the object key from a URL produced by a store with the
// given public base. It returns "" for foreign URLs.
func KeyFromURL(baseURL, rawURL string) string {
	base := strings.TrimRight(baseURL, "/") + "/"
	if baseURL == "" || !strings.HasPrefix(rawURL, base) {
		return ""
	}
	return strings.TrimPrefix(rawURL, base)
}

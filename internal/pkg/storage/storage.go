package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidKey   = errors.New("invalid file key")
)

// FileStorage stores uploaded blobs (avatars, generated exports) under
// slash-separated keys such as "avatars/<user-id>/<file>.png".
type FileStorage interface {
	// Upload stores file under key and returns the normalized key.
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)

	// Download retrieves a file
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetURL returns a URL the client can fetch the file from.
	GetURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	Exists(ctx context.Context, key string) (bool, error)
}

// UploadOptions constrains what an upload endpoint accepts.
type UploadOptions struct {
	MaxSize      int64
	AllowedTypes []string
}

// AvatarUploadOptions applies to profile pictures.
var AvatarUploadOptions = UploadOptions{
	MaxSize:      5 << 20,
	AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
}

// Allows reports whether contentType is accepted.
func (o UploadOptions) Allows(contentType string) bool {
	for _, t := range o.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

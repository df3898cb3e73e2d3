// Package media stores uploaded post images under keys like "posts/<uuid>.png".
package media

import (
	"context"
	"errors"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open and Delete for unknown keys.
var ErrNotFound = errors.New("media: object not found")

// ErrInvalidKey is returned for keys that are not clean relative paths.
var ErrInvalidKey = errors.New("media: invalid key")

// Object is a stored file read back into memory.
type Object struct {
	Key     string
	Data    []byte
	ModTime time.Time
}

// ContentType derives the MIME type from the key's extension.
func (o *Object) ContentType() string {
	if ct := mime.TypeByExtension(path.Ext(o.Key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Store persists media objects.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

// NewPostImageKey returns a fresh key for a post image with the given extension (".png").
func NewPostImageKey(ext string) string {
	return "posts/" + uuid.NewString() + ext
}

// ValidateKey rejects absolute keys and keys escaping the store root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return ErrInvalidKey
		}
	}
	return nil
}

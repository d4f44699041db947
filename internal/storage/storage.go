// Package storage keeps exported archives so they can be downloaded later.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no archive is stored under a key.
var ErrNotFound = errors.New("archive not found")

// ErrInvalidKey is returned for keys that could escape the store's root.
var ErrInvalidKey = errors.New("invalid archive key")

// ContentTypeZip is the media type of every stored archive.
const ContentTypeZip = "application/zip"

// Stored describes an archive after it was written.
type Stored struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Location string `json:"location"`
}

// ArchiveStore persists export archives.
type ArchiveStore interface {
	Put(ctx context.Context, name string, data []byte) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// newKey places the archive under a fresh prefix so names never collide
// while downloads keep the original file name.
func newKey(name string) string {
	return uuid.NewString() + "/" + path.Base(name)
}

// checkKey accepts "{uuid}/{name}" keys only.
func checkKey(key string) error {
	prefix, name, ok := strings.Cut(key, "/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if _, err := uuid.Parse(prefix); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// NameOf returns the download file name for a key.
func NameOf(key string) string {
	return path.Base(key)
}

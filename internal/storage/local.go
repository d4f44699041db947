package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalStorage writes archives below a base directory.
type LocalStorage struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalStorage{basePath: basePath, logger: logger}, nil
}

func (ls *LocalStorage) path(key string) string {
	return filepath.Join(ls.basePath, filepath.FromSlash(key))
}

// Put writes the archive through a temporary file so readers never see a partial zip.
func (ls *LocalStorage) Put(ctx context.Context, name string, data []byte) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	key := newKey(name)
	full := ls.path(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Stored{}, fmt.Errorf("create archive directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return Stored{}, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return Stored{}, fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Stored{}, fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return Stored{}, fmt.Errorf("store archive: %w", err)
	}
	ls.logger.Debug("archive stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return Stored{Key: key, Name: NameOf(key), Size: len(data), Location: "file://" + filepath.ToSlash(full)}, nil
}

// Open returns a reader for a stored archive.
func (ls *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(ls.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return f, nil
}

// Delete removes a stored archive and its key directory.
func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	full := ls.path(key)
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("delete archive: %w", err)
	}
	_ = os.Remove(filepath.Dir(full))
	return nil
}

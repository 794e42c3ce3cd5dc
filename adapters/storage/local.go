// Package storage provides StorageAdapter implementations for compressed
// artifacts.  The core never persists anything; callers decide where output
// bytes go.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MetaSuffix is appended to an artifact path to name its side-car file.
const MetaSuffix = ".meta.json"

// Local stores images on the local filesystem.
type Local struct {
	rootDir     string
	permissions os.FileMode
}

// NewLocal creates a Local storage adapter rooted at dir.
func NewLocal(dir string, perm os.FileMode) (*Local, error) {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: mkdir %s: %w", dir, err)
	}
	return &Local{rootDir: dir, permissions: perm}, nil
}

// Root returns the storage root directory.
func (l *Local) Root() string { return l.rootDir }

// Path returns the filesystem path for key.
func (l *Local) Path(key core.StorageKey) string {
	// Bucket maps to a subdirectory; Path is the filename.  Leading ".." are
	// stripped so keys cannot escape the root.
	return filepath.Join(l.rootDir, filepath.Join("/", key.Bucket), filepath.Join("/", key.Path))
}

func (l *Local) Put(ctx context.Context, key core.StorageKey, r io.Reader, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.put", err)
	}

	path := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.put.mkdir", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, l.permissions)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.put.open", err)
	}
	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		return apperrors.Wrap(apperrors.CategoryStorage, "local.put.copy", err)
	}
	if err := f.Close(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.put.close", err)
	}

	if len(meta) > 0 {
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return apperrors.Wrap(apperrors.CategoryStorage, "local.put.meta", err)
		}
		if err := os.WriteFile(path+MetaSuffix, data, l.permissions); err != nil {
			return apperrors.Wrap(apperrors.CategoryStorage, "local.put.meta", err)
		}
	}
	return nil
}

func (l *Local) Get(ctx context.Context, key core.StorageKey) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.get", err)
	}
	f, err := os.Open(l.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.New(apperrors.CategoryStorage, "local.get", fmt.Errorf("key not found: %v: %w", key, os.ErrNotExist))
		}
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.get.open", err)
	}
	return f, nil
}

// Meta reads the side-car written by Put, if any.
func (l *Local) Meta(ctx context.Context, key core.StorageKey) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.meta", err)
	}
	data, err := os.ReadFile(l.Path(key) + MetaSuffix)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.meta", err)
	}
	var meta map[string]string
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.meta", err)
	}
	return meta, nil
}

func (l *Local) Delete(ctx context.Context, key core.StorageKey) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.delete", err)
	}
	path := l.Path(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.delete", err)
	}
	_ = os.Remove(path + MetaSuffix)
	return nil
}

func (l *Local) Exists(ctx context.Context, key core.StorageKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.Wrap(apperrors.CategoryStorage, "local.exists", err)
	}
	_, err := os.Stat(l.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, apperrors.Wrap(apperrors.CategoryStorage, "local.exists.stat", err)
}

var _ core.StorageAdapter = (*Local)(nil)

package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LocalStore writes blobs to a directory on disk and returns URLs under a
// public prefix, e.g. /uploads/<uuid>.png. Filenames are uuid based so two
// users uploading cat.png never collide.
type LocalStore struct {
	dir    string
	prefix string
}

// NewLocalStore creates the uploads directory if needed.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join("public", "uploads")
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to create uploads directory")
	}

	return &LocalStore{dir: dir, prefix: urlPrefix}, nil
}

func (s *LocalStore) Store(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during blob store")
	default:
	}

	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to write blob")
	}

	return s.prefix + "/" + name, nil
}

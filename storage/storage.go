// Package storage provides the blob store capability used for profile
// pictures: hand in bytes, get back a reference URL. Implementations cover a
// local uploads directory and S3 compatible object stores.
package storage

import (
	"context"

	"github.com/goliatone/go-errors"
)

// BlobStore stores an opaque blob under a name derived from the given
// filename and returns a URL the stored object can be referenced by.
type BlobStore interface {
	Store(ctx context.Context, filename string, data []byte) (string, error)
}

// ErrEmptyBlob rejects zero-length uploads.
var ErrEmptyBlob = errors.New("blob data must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

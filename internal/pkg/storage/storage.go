package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when nothing is stored at the path.
var ErrNotExist = errors.New("stored object does not exist")

// Storage defines the interface for file storage operations.
type Storage interface {
	// Save saves a file to the storage.
	// path is the relative path where the file should be stored.
	// content is the file content.
	// Returns the error if any.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get retrieves a file from the storage. A missing file yields ErrNotExist.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file from the storage.
	// path is the relative path of the file to delete.
	// Returns error if any.
	Delete(ctx context.Context, path string) error
}

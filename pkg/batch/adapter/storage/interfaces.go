// Package storage defines the object storage used for exported job artifacts.
// Backends (local file system, Google Cloud Storage) live in sub-packages.
package storage

import (
	"context"
	"io"
)

// StorageConnection is a connection to one storage backend.
// Object names always use forward slashes, whatever the backend.
type StorageConnection interface {
	// Upload writes data to objectName. contentType is the MIME type of the data.
	Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error
	// Download opens objectName for reading. The caller closes the returned reader.
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object whose name starts with prefix.
	ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error
	// DeleteObject removes objectName. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, objectName string) error

	// Type returns the backend type ("local", "gcs").
	Type() string
	// Name returns the connection name used in logs.
	Name() string
	Close() error
}

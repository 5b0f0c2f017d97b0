// Package gcs provides a Google Cloud Storage implementation of the storage adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageAdapter "github.com/tigerroll/idbatch/pkg/batch/adapter/storage"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this storage adapter.
	ProviderType = "gcs"
)

// gcsAdapter stores objects in a single bucket.
type gcsAdapter struct {
	client *storage.Client
	bucket string
	name   string
}

var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// CredentialsOption returns the client option for a service account key file,
// or nil when path is empty and application default credentials apply.
func CredentialsOption(path string) []option.ClientOption {
	if path == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(path)}
}

// NewGCSAdapter creates a connection to bucket. Creating the client does not contact the service.
func NewGCSAdapter(ctx context.Context, bucket, name string, opts ...option.ClientOption) (storageAdapter.StorageConnection, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs storage adapter '%s': bucket must be specified", name)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}
	logger.Debugf("GCS storage adapter '%s' created for bucket '%s'.", name, bucket)
	return &gcsAdapter{client: client, bucket: bucket, name: name}, nil
}

func (a *gcsAdapter) Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error {
	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload 'gs://%s/%s': %w", a.bucket, objectName, err)
	}
	// The object is committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize 'gs://%s/%s': %w", a.bucket, objectName, err)
	}
	logger.Debugf("Uploaded data to 'gs://%s/%s' (gcs adapter '%s').", a.bucket, objectName, a.name)
	return nil
}

func (a *gcsAdapter) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	r, err := a.client.Bucket(a.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open 'gs://%s/%s': %w", a.bucket, objectName, err)
	}
	return r, nil
}

func (a *gcsAdapter) ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error {
	it := a.client.Bucket(a.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list 'gs://%s/%s': %w", a.bucket, prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

func (a *gcsAdapter) DeleteObject(ctx context.Context, objectName string) error {
	err := a.client.Bucket(a.bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		logger.Warnf("Attempted to delete non-existent object 'gs://%s/%s' (gcs adapter '%s').", a.bucket, objectName, a.name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete 'gs://%s/%s': %w", a.bucket, objectName, err)
	}
	return nil
}

func (a *gcsAdapter) Type() string { return ProviderType }

func (a *gcsAdapter) Name() string { return a.name }

func (a *gcsAdapter) Close() error {
	return a.client.Close()
}

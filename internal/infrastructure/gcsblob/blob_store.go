package gcsblob

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/starfolio/starfolio-api/internal/domain/storage"
)

// Store implements the blob store collaborator on Google Cloud Storage.
type Store struct {
	client *gcs.Client
	bucket string
}

// NewClient creates a GCS client. If credsPath is empty, Application
// Default Credentials are used.
func NewClient(ctx context.Context, credsPath string) (*gcs.Client, error) {
	if credsPath == "" {
		return gcs.NewClient(ctx)
	}
	return gcs.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

func New(client *gcs.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Put(ctx context.Context, r io.Reader, filename, contentType string) (storage.StoredObject, error) {
	wc := s.client.Bucket(s.bucket).Object(filename).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return storage.StoredObject{}, err
	}
	if err := wc.Close(); err != nil {
		return storage.StoredObject{}, err
	}
	return storage.StoredObject{Filename: filename, URL: PublicURL(s.bucket, filename)}, nil
}

// Delete removes the object. A blob that is already gone is not an error;
// the caller treats deletion as best effort either way.
func (s *Store) Delete(ctx context.Context, filename string) error {
	err := s.client.Bucket(s.bucket).Object(filename).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// PublicURL builds a public URL for an object (assuming public read access)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

var _ storage.BlobStore = (*Store)(nil)

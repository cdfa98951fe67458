package storage

import (
	"context"
	"io"
)

// StoredObject identifies an uploaded blob: the storage filename used for
// later deletion and the public retrieval URL.
type StoredObject struct {
	Filename string
	URL      string
}

// BlobStore is the external binary storage collaborator. Size and MIME
// constraints are enforced by callers before Put; Delete is best-effort and
// a missing object is not an error worth failing a request over.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, filename, contentType string) (StoredObject, error)
	Delete(ctx context.Context, filename string) error
}

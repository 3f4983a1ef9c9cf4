package ports

import (
	"context"
	"errors"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobMetadata describes bytes handed to a BlobStore.
type BlobMetadata struct {
	ApplicationID int64
	Name          string
	ContentType   string
}

// BlobStore keeps document bytes and hands back a retrievable URL.
type BlobStore interface {
	Store(ctx context.Context, data []byte, meta BlobMetadata) (string, error)
	Delete(ctx context.Context, url string) error
}

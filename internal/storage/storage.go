// Package storage defines the media object store abstraction. Keys are
// routing keys of the form "<connection_id>/<object_name>".
package storage

import (
	"context"
	"io"
)

// Provider stores and retrieves media objects.
type Provider interface {
	// Put stores the object under key, replacing any existing object.
	Put(ctx context.Context, key string, reader io.Reader) error
	// Open returns the object's contents for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// AccessPath returns the externally usable path or URL for a key.
	AccessPath(key string) string
}

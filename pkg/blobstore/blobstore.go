// Package blobstore defines the object storage surface used by the
// upload pipeline.
package blobstore

import "context"

// Store writes and removes binary objects at caller-chosen paths.
type Store interface {
	// Put stores data at path and returns a publicly resolvable URI.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

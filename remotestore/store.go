// Package remotestore fetches a compiled corpus directory from a remote
// object store into a local cache directory so fabric.Open can load it
// from disk, per spec §6's CF_CACHE_DIR contract. It is a cache-warming
// convenience only: fabric.Open never reaches the network itself.
package remotestore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a requested object does not exist in the
// remote store.
var ErrNotFound = errors.New("remotestore: object not found")

// Store lists and opens objects under a key prefix. It is the minimal
// surface Fetch needs from either backend; object-level operations take
// a context since every implementation makes a network call.
type Store interface {
	// List returns every object key under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Open opens a single object for streamed reading. Callers must Close it.
	Open(ctx context.Context, key string) (Object, error)
}

// Object is a readable, sized remote object.
type Object interface {
	io.ReadCloser
	Size() int64
}

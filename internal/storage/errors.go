package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIndex is returned for a lookup on an index the collection does not declare.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrKeyShape is returned when a key does not match the collection's primary key.
	ErrKeyShape = errors.New("key does not match primary key")
	// ErrSchemaTooNew is returned when the store was written by a newer schema.
	ErrSchemaTooNew = errors.New("store schema is newer than supported")
)

// ConnectionError reports that the store could not be opened or upgraded.
// The engine's message is kept verbatim.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open store %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed single-collection operation. Nothing was applied.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsConnection reports whether err carries a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsStorage reports whether err carries a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

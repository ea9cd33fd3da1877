package blobstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is matched by every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("blob not found")

	errKeyExists = errors.New("key already exists")
)

// NotFoundError is returned by Retrieve when the referenced blob does not exist.
type NotFoundError struct {
	URI string
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob %s does not exist", e.URI)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// StorageError is a backend failure that persisted through the backend's retry policy: network,
// authentication, throttling, quota or timeout.
type StorageError struct {
	Op       string // store, retrieve, list or delete
	Location string // uri or key the operation addressed
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("unable to %s %s. %v", e.Op, e.Location, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DeleteError names the keys a Delete call could not remove.
type DeleteError struct {
	Failed map[string]error
}

func (e *DeleteError) Error() string {
	keys := e.Keys()
	if len(keys) == 1 {
		return fmt.Sprintf("unable to delete %s. %v", keys[0], e.Failed[keys[0]])
	}
	return fmt.Sprintf("unable to delete %d blobs: %s", len(keys), strings.Join(keys, ", "))
}

// Keys returns the failed keys in sorted order.
func (e *DeleteError) Keys() []string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *DeleteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, k := range e.Keys() {
		errs = append(errs, e.Failed[k])
	}
	return errs
}

// NewStorageError wraps err unless it is already classified.
func NewStorageError(op, location string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	var notFoundErr *NotFoundError
	if errors.As(err, &storageErr) || errors.As(err, &notFoundErr) {
		return err
	}
	return &StorageError{Op: op, Location: location, Err: err}
}

// Chunk splits keys into batches of at most size keys.
func Chunk(keys []string, size int) [][]string {
	var batches [][]string
	for size < len(keys) {
		keys, batches = keys[size:], append(batches, keys[:size:size])
	}
	if len(keys) > 0 {
		batches = append(batches, keys)
	}
	return batches
}

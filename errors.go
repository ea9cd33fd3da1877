package hefty

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vinujohn/hefty-blob/blobstore"
	"github.com/vinujohn/hefty-blob/internal/messages"
)

type (
	// CodecError reports malformed wire bytes. It is never retried.
	CodecError = messages.CodecError
	// StorageError reports a backend failure that outlived the retry policy.
	StorageError = blobstore.StorageError
	// NotFoundError reports a reference whose blob no longer exists.
	NotFoundError = blobstore.NotFoundError
	DeleteError   = blobstore.DeleteError
)

var ErrNotFound = blobstore.ErrNotFound

// ConfigurationError is returned at construction time, before any record is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

// CleanupError names the keys under Prefix that a cleanup could not delete. Pass FailedKeys to
// Cleaner.DeleteKeys to retry only those.
type CleanupError struct {
	Prefix string
	Failed map[string]error
}

func (e *CleanupError) Error() string {
	keys := e.FailedKeys()
	return fmt.Sprintf("unable to delete %d blobs under %s: %s", len(keys), e.Prefix, strings.Join(keys, ", "))
}

// FailedKeys returns the failed keys in sorted order.
func (e *CleanupError) FailedKeys() []string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *CleanupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, k := range e.FailedKeys() {
		errs = append(errs, e.Failed[k])
	}
	return errs
}

package blobstore

import (
	"fmt"
	"strings"
)

const schemeSeparator = "://"

// URI addresses exactly one blob: scheme://bucket/key.
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

func FormatURI(scheme, bucket, key string) string {
	return scheme + schemeSeparator + bucket + "/" + key
}

func (u URI) String() string {
	return FormatURI(u.Scheme, u.Bucket, u.Key)
}

// ParseURI splits a reference into its parts. Keys keep any inner slashes.
func ParseURI(raw string) (URI, error) {
	scheme, rest, ok := strings.Cut(raw, schemeSeparator)
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("invalid blob uri %q: missing scheme", raw)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" {
		return URI{}, fmt.Errorf("invalid blob uri %q: missing bucket", raw)
	}
	if key == "" {
		return URI{}, fmt.Errorf("invalid blob uri %q: missing key", raw)
	}

	return URI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// ParseSchemeURI parses raw and checks that it belongs to the given scheme.
func ParseSchemeURI(scheme, raw string) (URI, error) {
	u, err := ParseURI(raw)
	if err != nil {
		return URI{}, err
	}
	if u.Scheme != scheme {
		return URI{}, fmt.Errorf("blob uri %q cannot be read by a %q store", raw, scheme)
	}
	return u, nil
}

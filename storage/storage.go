// Package storage holds the blob stores that keep uploaded keepfile images.
// Keys are slash-separated logical paths such as "keepfile/image/<name>".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrNotExist   = errors.New("blob does not exist")
	ErrInvalidKey = errors.New("invalid blob key")
)

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the blob. A missing blob is reported as ErrNotExist.
	Delete(ctx context.Context, key string) error
}

// Key joins a logical directory and a file name into a blob key.
func Key(dir, name string) string {
	return path.Join(dir, name)
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

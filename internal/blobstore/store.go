// Package blobstore stores check images and returns the URL they are
// reachable at.
package blobstore

import (
	"context"
	"errors"
	"strings"
)

//go:generate mockgen -destination=mock/store_mock.go -package=mock github.com/smallbiznis/checkmapper/internal/blobstore Store

// Store writes an object and returns its URL. Writing the same key twice
// overwrites the object.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var (
	ErrEmptyKey  = errors.New("blob key is empty")
	ErrEmptyData = errors.New("blob data is empty")
)

// CleanKey trims the key and rejects path traversal.
func CleanKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", errors.New("invalid blob key")
		}
	}
	return key, nil
}

// JoinURL appends key to base with exactly one slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

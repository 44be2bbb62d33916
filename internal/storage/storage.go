// Package storage keeps floor-plan files in an object store.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
)

var ErrNotFound = errors.New("object not found")

type ObjectStore interface {
	// Put stores body under key and returns the public URL.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Copy duplicates srcKey to dstKey server-side and returns the new URL.
	Copy(ctx context.Context, srcKey, dstKey string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DeleteKeys removes objects whose rows are already gone. Failures leave
// orphaned objects; they are logged and not returned.
func DeleteKeys(ctx context.Context, store ObjectStore, log logger.Logger, keys []string) {
	if store == nil {
		return
	}
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			log.WithFields(map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			}).Warn("failed to delete stored object")
		}
	}
}

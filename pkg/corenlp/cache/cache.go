package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache memoizes annotation results so repeated calls with identical text
// and configuration never reach the engine.
type Cache interface {
	Close() error

	// Get returns the stored annotation payload for a key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores an annotation payload under a key, replacing any
	// previous payload.
	Put(ctx context.Context, key string, payload []byte) error

	// Prune deletes entries created before the cutoff and reports how
	// many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Key derives the cache key for one annotation request: the configuration
// fingerprint combined with a digest of the input text. Two requests
// collide only when both the resolved configuration and the text match.
func Key(fingerprint, text string) string {
	sum := sha256.Sum256([]byte(fingerprint + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

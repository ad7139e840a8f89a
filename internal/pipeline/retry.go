package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/dgallion1/manuscript/internal/store"
)

// IsRetryable checks if a store error is worth retrying.
func IsRetryable(err error) bool {
	return store.IsBusy(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
	if base > 5*time.Second {
		base = 5 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

package embeddings

import (
	"time"
)

// Backoff returns the wait before retrying a failed batch: 2^attempt seconds
// for attempt 0, 1, 2, ...
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 6 {
		attempt = 6 // Cap at 64s
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

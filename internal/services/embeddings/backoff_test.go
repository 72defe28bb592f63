package embeddings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Second, Backoff(0))
	assert.Equal(t, 2*time.Second, Backoff(1))
	assert.Equal(t, 4*time.Second, Backoff(2))
	assert.Equal(t, 8*time.Second, Backoff(3))
}

func TestBackoffBounds(t *testing.T) {
	assert.Equal(t, 1*time.Second, Backoff(-1))
	assert.Equal(t, 64*time.Second, Backoff(6))
	assert.Equal(t, 64*time.Second, Backoff(20))
}

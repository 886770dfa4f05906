package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_Allow(t *testing.T) {
	b := newTokenBucket(1, 3)

	// The burst is consumable immediately.
	for i := 0; i < 3; i++ {
		assert.True(t, b.allow(), "request %d within burst", i)
	}
	assert.False(t, b.allow())
}

func TestTokenBucket_Refill(t *testing.T) {
	b := newTokenBucket(1000, 1)
	assert.True(t, b.allow())
	assert.False(t, b.allow())

	// Simulate a second elapsing; at 1000 rps the bucket refills but
	// stays capped at the burst size.
	b.lastRefill = b.lastRefill.Add(-time.Second)
	assert.True(t, b.allow())
	assert.False(t, b.allow())
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholderCode_Deterministic(t *testing.T) {
	a := placeholderCode("7b1e9a2c-0000-0000-0000-000000000000", 42)
	b := placeholderCode("7b1e9a2c-0000-0000-0000-000000000000", 42)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "7B1E9A2C")
}

func TestPlaceholderCode_DistinctOrdinals(t *testing.T) {
	a := placeholderCode("offer-1", 1)
	b := placeholderCode("offer-1", 2)
	assert.NotEqual(t, a, b)
}

func TestPlaceholderCode_DistinctOffersSharingPrefix(t *testing.T) {
	// Both ids reduce to the prefix 7B1E9A2C; the embedded digest of the
	// full id must still keep their codes apart.
	a := placeholderCode("7b1e9a2c-0000-0000-0000-000000000001", 0)
	b := placeholderCode("7b1e9a2c-0000-0000-0000-000000000002", 0)
	assert.NotEqual(t, a, b)
}

func TestDirectCode_DistinctUnderBurst(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := directCode("offer-1", now) // same millisecond on purpose
		assert.False(t, seen[code], "burst-minted codes must not collide")
		seen[code] = true
	}
}

func TestIdempotentCode_StablePerRequest(t *testing.T) {
	a := idempotentCode("offer-1", "user-1", "key-1")
	b := idempotentCode("offer-1", "user-1", "key-1")
	c := idempotentCode("offer-1", "user-1", "key-2")
	d := idempotentCode("offer-2", "user-1", "key-1")
	e := idempotentCode("offer-1", "user-2", "key-1")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d, "same key under a different offer derives a different code")
	assert.NotEqual(t, a, e, "same key from a different user derives a different code")
}

func TestShareCode_Fresh(t *testing.T) {
	a := shareCode("offer-1")
	b := shareCode("offer-1")
	assert.NotEqual(t, a, b)
}

package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireIsExclusive(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Acquire("token-1"))
	assert.False(t, r.Acquire("token-1"))

	state, ok := r.StateOf("token-1")
	assert.True(t, ok)
	assert.Equal(t, StateInFlight, state)
}

func TestCompleteIsPermanent(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Acquire("token-1"))
	r.Complete("token-1")

	assert.False(t, r.Acquire("token-1"))

	// a release after completion changes nothing
	r.Release("token-1")
	assert.False(t, r.Acquire("token-1"))

	state, ok := r.StateOf("token-1")
	assert.True(t, ok)
	assert.Equal(t, StateCompleted, state)
}

func TestReleaseAllowsRetry(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Acquire("token-1"))
	r.Release("token-1")

	assert.True(t, r.Acquire("token-1"))
}

func TestTokensAreIndependent(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Acquire("token-1"))
	assert.True(t, r.Acquire("token-2"))
	r.Complete("token-1")
	r.Release("token-2")

	assert.False(t, r.Acquire("token-1"))
	assert.True(t, r.Acquire("token-2"))
}

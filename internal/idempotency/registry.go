package idempotency

import (
	"sync"
)

// State of a token in the registry
type State string

const (
	StateInFlight  State = "in_flight"
	StateCompleted State = "completed"
)

// Registry tracks dispatch tokens with "unique until executed" semantics:
// a token can be acquired once, duplicate submissions while it is in flight
// or after completion are suppressed, and a failed execution releases the
// token so the work item can be retried by a later trigger.
type Registry struct {
	mu     sync.Mutex
	states map[string]State
}

// NewRegistry creates a new in-memory idempotency registry
func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]State),
	}
}

// Acquire marks a token as in flight. It returns false when the token is
// already in flight or completed, in which case the caller must not execute.
func (r *Registry) Acquire(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.states[token]; exists {
		return false
	}
	r.states[token] = StateInFlight
	return true
}

// Complete marks a token as permanently executed. Further Acquire calls for
// the token return false forever.
func (r *Registry) Complete(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[token] = StateCompleted
}

// Release drops an in-flight token after a failed execution so a later
// trigger can retry it. Completed tokens are never released.
func (r *Registry) Release(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.states[token] == StateInFlight {
		delete(r.states, token)
	}
}

// StateOf returns the current state of a token
func (r *Registry) StateOf(token string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[token]
	return state, ok
}

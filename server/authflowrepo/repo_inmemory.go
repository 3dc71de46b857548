package authflowrepo

import (
	"errors"
	"sync"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*AuthFlowState
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*AuthFlowState),
	}
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	copied := *authState
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = NowTimeFunc()
	}
	r.states[state] = &copied

	return nil
}

// Get retrieves an auth flow state by state parameter. Entries past the
// state TTL are dropped and reported as not found.
func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, errors.New("state not found")
	}

	if NowTimeFunc().Sub(authState.CreatedAt) > StateTTL {
		delete(r.states, state)
		return nil, errors.New("state expired")
	}

	copied := *authState
	return &copied, nil
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

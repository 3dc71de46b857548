// Package authflowrepo holds the in-flight login state between the
// /auth/login redirect and the /auth/callback return: the OAuth state
// parameter maps to the nonce and PKCE verifier minted for that attempt.
// Entries are single-use and expire after a short TTL.
package authflowrepo

import "time"

// StateTTL is how long a login attempt may sit between redirect and callback.
const StateTTL = 15 * time.Minute

type AuthFlowState struct {
	CodeVerifier string
	Nonce        string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
}

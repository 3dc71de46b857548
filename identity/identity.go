// Package identity wraps the external identity provider behind an
// explicitly constructed, injected client. The rest of the service never
// talks OAuth2/OIDC directly; it hands over an authorization code and
// gets back a verified Identity or an error.
package identity

import "context"

// Identity is the verified result of an identity-provider exchange.
type Identity struct {
	Subject       string // provider subject id ("sub")
	Email         string
	Name          string
	Picture       string
	EmailVerified bool

	// RefreshToken is the provider's own refresh token. Google only
	// issues it on first consent (or with prompt=consent), so it is
	// frequently empty on repeat sign-ins.
	RefreshToken string
}

// Client initiates the provider redirect and completes the code exchange.
type Client interface {
	// AuthCodeURL builds the provider redirect URL for a login attempt.
	// codeVerifier is the PKCE verifier stashed for the callback; the
	// derived S256 challenge rides along on the redirect.
	AuthCodeURL(state, nonce, codeVerifier string) string

	// Exchange trades the authorization code for provider tokens,
	// verifies the ID token's signature and claims, checks the nonce,
	// and returns the asserted identity. Any failure aborts the login
	// with errors.ErrIdentityVerification; no state is mutated.
	Exchange(ctx context.Context, code, codeVerifier, nonce string) (*Identity, error)
}

package identityfake

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-google-auth/identity"
	"github.com/jrsteele09/go-google-auth/internal/errors"
)

var _ identity.Client = (*FakeClient)(nil)

// FakeClient stands in for Google in tests. Exchange succeeds for the
// configured Identity unless Fail is set.
type FakeClient struct {
	Identity identity.Identity
	Fail     bool

	// LastCode records the most recent Exchange arguments.
	LastCode     string
	LastVerifier string
	LastNonce    string
}

func NewFakeClient(id identity.Identity) *FakeClient {
	return &FakeClient{Identity: id}
}

func (f *FakeClient) AuthCodeURL(state, nonce, codeVerifier string) string {
	return fmt.Sprintf("https://accounts.example.com/authorize?state=%s&nonce=%s", state, nonce)
}

func (f *FakeClient) Exchange(_ context.Context, code, codeVerifier, nonce string) (*identity.Identity, error) {
	f.LastCode = code
	f.LastVerifier = codeVerifier
	f.LastNonce = nonce

	if f.Fail {
		return nil, errors.ErrIdentityVerification
	}
	copied := f.Identity
	return &copied, nil
}

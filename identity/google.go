package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-google-auth/internal/config"
	apperrors "github.com/jrsteele09/go-google-auth/internal/errors"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// GoogleClient implements Client against Google's OIDC endpoints. It is
// constructed once at process start and injected wherever identity
// verification is needed, which also makes it trivial to substitute a
// fake in tests.
type GoogleClient struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

var _ Client = (*GoogleClient)(nil)

// NewGoogleClient discovers Google's OIDC configuration and builds the
// oauth2 exchange config. The context bounds only the discovery request.
func NewGoogleClient(ctx context.Context, cfg config.GoogleConfig) (*GoogleClient, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("[NewGoogleClient] OIDC discovery failed: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GetGoogleClientID(),
		ClientSecret: cfg.GetGoogleClientSecret(),
		RedirectURL:  cfg.GetGoogleRedirectURI(),
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return &GoogleClient{
		oauthConfig: oauthConfig,
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.GetGoogleClientID()}),
	}, nil
}

// AuthCodeURL builds the Google redirect URL. access_type=offline asks
// Google for its own refresh token, stored for background jobs.
func (g *GoogleClient) AuthCodeURL(state, nonce, codeVerifier string) string {
	return g.oauthConfig.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(codeVerifier),
	)
}

// Exchange trades the authorization code for tokens and verifies the ID
// token. Every failure collapses into ErrIdentityVerification so the
// caller has a single abort path that issues no tokens and writes no rows.
func (g *GoogleClient) Exchange(ctx context.Context, code, codeVerifier, nonce string) (*Identity, error) {
	oauth2Token, err := g.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrIdentityVerification, "token exchange failed: %v", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrIdentityVerification, "no ID token in response")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrIdentityVerification, "ID token verification failed: %v", err)
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrIdentityVerification, "failed to extract claims: %v", err)
	}

	// Nonce check prevents replay of a captured ID token
	if claims.Nonce != nonce {
		return nil, apperrors.Wrapf(apperrors.ErrIdentityVerification, "nonce mismatch")
	}

	return &Identity{
		Subject:       claims.Sub,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
		RefreshToken:  oauth2Token.RefreshToken,
	}, nil
}

package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-google-auth/internal/config"
	"github.com/jrsteele09/go-google-auth/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Kind selects which session credential a Codec issues.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims are the decoded contents of a session credential. Subject holds
// the user ID as a string.
type Claims struct {
	Kind Kind `json:"kind"`
	jwtlib.RegisteredClaims
}

// Pair is the transient access/refresh credential pair handed out on
// login and refresh. It is never persisted as a unit; only the refresh
// token value is recorded in the ledger.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Codec issues and verifies signed, time-bound session credentials.
// Signing is symmetric (HS256); expiries are computed from a single UTC
// clock so that token lifetime matches the configured TTLs exactly.
type Codec struct {
	secret []byte
	config config.TokenConfig
}

// NewCodec creates a Codec from the signing secret and the configured TTLs.
func NewCodec(secret string, cfg config.TokenConfig) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("[NewCodec] signing secret is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("[NewCodec] token config is required")
	}
	return &Codec{secret: []byte(secret), config: cfg}, nil
}

// TTL returns the configured lifetime for the given credential kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.config.GetRefreshTokenExpiry()
	}
	return c.config.GetAccessTokenExpiry()
}

// Issue produces a signed credential whose payload is {sub, exp} plus
// iat/jti bookkeeping claims.
func (c *Codec) Issue(kind Kind, subjectID string) (string, error) {
	now := NowTimeFunc().UTC()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.TTL(kind))),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// IssuePair issues a fresh access/refresh pair for the same subject.
func (c *Codec) IssuePair(subjectID string) (*Pair, error) {
	accessToken, err := c.Issue(KindAccess, subjectID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := c.Issue(KindRefresh, subjectID)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Verify decodes a credential and checks signature integrity and expiry.
// Any failure comes back as errors.ErrInvalidToken or errors.ErrTokenExpired
// so callers can react uniformly.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.ErrInvalidToken
		}
		return c.secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc().UTC() }))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

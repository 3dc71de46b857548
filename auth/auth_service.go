// Package auth implements the session lifecycle: credential issuance on
// login, the sliding-window refresh protocol with ledger rotation, and
// logout revocation. A session's state lives entirely in ledger rows --
// issued-active, expired, or revoked -- which is what keeps the service
// horizontally scalable without sticky sessions.
package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/jrsteele09/go-google-auth/identity"
	apperrors "github.com/jrsteele09/go-google-auth/internal/errors"
	"github.com/jrsteele09/go-google-auth/token"
	"github.com/jrsteele09/go-google-auth/token/ledger"
	"github.com/jrsteele09/go-google-auth/users"
	"github.com/pkg/errors"
)

// Repos holds all repository dependencies for the SessionService
type Repos struct {
	Users  users.Repo  // Repository for the user directory
	Tokens ledger.Repo // Repository for the refresh token ledger
}

// SessionService orchestrates directory upserts, credential issuance and
// ledger transitions for the login/refresh/logout state machine.
type SessionService struct {
	repos   Repos
	codec   *token.Codec
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(ss *SessionService) {
		ss.nowTime = nowFunc
	}
}

// NewSessionService initializes a new SessionService with required dependencies.
func NewSessionService(repos Repos, codec *token.Codec, options ...SessionServiceOption) (*SessionService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewSessionService] Users repo is required")
	}
	if repos.Tokens == nil {
		return nil, errors.New("[NewSessionService] Tokens repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionService] codec is required")
	}

	sessionService := &SessionService{
		repos:   repos,
		codec:   codec,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(sessionService)
	}

	return sessionService, nil
}

// Login turns a verified identity assertion into an application session:
// directory upsert, credential pair issuance, and one new ledger row.
// The upsert must complete first -- the ledger row references the user id.
func (ss *SessionService) Login(ctx context.Context, id identity.Identity) (*users.User, *token.Pair, error) {
	user, err := ss.repos.Users.Upsert(ctx, users.UpsertParams{
		Email:              id.Email,
		FullName:           id.Name,
		Picture:            id.Picture,
		GoogleID:           id.Subject,
		GoogleRefreshToken: id.RefreshToken,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "[SessionService Login] directory upsert")
	}

	pair, err := ss.codec.IssuePair(strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		return nil, nil, errors.Wrap(err, "[SessionService Login] issue credentials")
	}

	expiresAt := ss.nowTime().UTC().Add(ss.codec.TTL(token.KindRefresh))
	if err := ss.repos.Tokens.Record(ctx, pair.RefreshToken, user.ID, expiresAt); err != nil {
		return nil, nil, errors.Wrap(err, "[SessionService Login] record refresh token")
	}

	return user, pair, nil
}

// Refresh implements the sliding window: a valid, ledger-active refresh
// token is exchanged for a brand new pair, and the presented token is
// revoked in the same transaction that records its replacement.
func (ss *SessionService) Refresh(ctx context.Context, presented string) (*token.Pair, error) {
	claims, err := ss.codec.Verify(presented)
	if err != nil {
		return nil, apperrors.ErrSessionExpired
	}
	if claims.Kind != token.KindRefresh {
		return nil, apperrors.ErrSessionExpired
	}

	// The signature alone is not enough: a revoked or superseded token
	// verifies fine but must not extend the session.
	record, err := ss.repos.Tokens.FindActive(ctx, presented)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTokenNotActive) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, errors.Wrap(err, "[SessionService Refresh] ledger lookup")
	}

	pair, err := ss.codec.IssuePair(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionService Refresh] issue credentials")
	}

	expiresAt := ss.nowTime().UTC().Add(ss.codec.TTL(token.KindRefresh))
	if err := ss.repos.Tokens.Rotate(ctx, presented, pair.RefreshToken, record.UserID, expiresAt); err != nil {
		return nil, errors.Wrap(err, "[SessionService Refresh] rotate refresh token")
	}

	return pair, nil
}

// Logout revokes the presented refresh token. An absent value is a no-op
// success, as is revoking a token the ledger has never seen: logout is
// idempotent from the client's point of view.
func (ss *SessionService) Logout(ctx context.Context, presented string) (bool, error) {
	if presented == "" {
		return false, nil
	}
	revoked, err := ss.repos.Tokens.Revoke(ctx, presented)
	if err != nil {
		return false, errors.Wrap(err, "[SessionService Logout] revoke")
	}
	return revoked, nil
}

// CurrentUser resolves a bearer access token to the user it was issued
// for. Invalid or expired tokens, refresh tokens presented as access
// tokens, and subjects whose user row no longer exists all collapse into
// ErrUnauthenticated.
func (ss *SessionService) CurrentUser(ctx context.Context, bearer string) (*users.User, error) {
	claims, err := ss.codec.Verify(bearer)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if claims.Kind != token.KindAccess {
		return nil, apperrors.ErrUnauthenticated
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := ss.repos.Users.FindByID(ctx, uint(userID))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "[SessionService CurrentUser] load user")
	}

	return user, nil
}

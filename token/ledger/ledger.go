// Package ledger tracks every refresh token this service has issued,
// together with its owner, expiry and revocation state. Rows are never
// physically deleted; logout and rotation only flip is_revoked, leaving
// an audit trail.
package ledger

import (
	"context"
	"time"
)

// RefreshTokenRecord is one issued refresh token. RefreshToken holds the
// signed credential value itself and is unique across all rows.
type RefreshTokenRecord struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	RefreshToken string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	IsRevoked    bool      `gorm:"default:false" json:"is_revoked"`
}

// TableName returns the table name for the RefreshTokenRecord model.
func (RefreshTokenRecord) TableName() string {
	return "refresh_tokens"
}

// Repo is the persistence contract for the refresh token ledger.
type Repo interface {
	// Record inserts a new row for an issued token. A duplicate token
	// value is a hard conflict (errors.ErrTokenConflict), never ignored.
	Record(ctx context.Context, tokenValue string, userID uint, expiresAt time.Time) error

	// FindActive returns the row for tokenValue only if it is neither
	// revoked nor past its expiry; otherwise errors.ErrTokenNotActive.
	FindActive(ctx context.Context, tokenValue string) (*RefreshTokenRecord, error)

	// Revoke flips is_revoked and reports whether a row matched.
	// Revoking an already-revoked token is a no-op success.
	Revoke(ctx context.Context, tokenValue string) (bool, error)

	// Rotate revokes the superseded token and records its replacement in
	// one storage transaction, so ledger and live-cookie state never
	// diverge mid-rotation.
	Rotate(ctx context.Context, oldValue, newValue string, userID uint, expiresAt time.Time) error
}

package gormrepo

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-google-auth/internal/errors"
	"github.com/jrsteele09/go-google-auth/token/ledger"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Repo persists the refresh token ledger with GORM.
type Repo struct {
	db *gorm.DB
}

var _ ledger.Repo = (*Repo)(nil)

// New creates a ledger repository backed by the given GORM handle.
func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Record inserts a new ledger row for an issued refresh token.
func (r *Repo) Record(ctx context.Context, tokenValue string, userID uint, expiresAt time.Time) error {
	return r.record(r.db.WithContext(ctx), tokenValue, userID, expiresAt)
}

func (r *Repo) record(tx *gorm.DB, tokenValue string, userID uint, expiresAt time.Time) error {
	row := ledger.RefreshTokenRecord{
		RefreshToken: tokenValue,
		UserID:       userID,
		ExpiresAt:    expiresAt.UTC(),
		CreatedAt:    NowTimeFunc().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrTokenConflict
		}
		return errors.Wrap(err, "[ledger gormrepo] Record")
	}
	return nil
}

// FindActive looks a row up by token value, pre-filtered to non-revoked,
// non-expired rows.
func (r *Repo) FindActive(ctx context.Context, tokenValue string) (*ledger.RefreshTokenRecord, error) {
	var row ledger.RefreshTokenRecord
	err := r.db.WithContext(ctx).
		Where("refresh_token = ? AND is_revoked = ? AND expires_at > ?", tokenValue, false, NowTimeFunc().UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenNotActive
		}
		return nil, errors.Wrap(err, "[ledger gormrepo] FindActive")
	}
	return &row, nil
}

// Revoke flips is_revoked for the row holding tokenValue.
func (r *Repo) Revoke(ctx context.Context, tokenValue string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&ledger.RefreshTokenRecord{}).
		Where("refresh_token = ?", tokenValue).
		Update("is_revoked", true)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "[ledger gormrepo] Revoke")
	}
	return result.RowsAffected > 0, nil
}

// Rotate revokes oldValue and records newValue atomically.
func (r *Repo) Rotate(ctx context.Context, oldValue, newValue string, userID uint, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ledger.RefreshTokenRecord{}).
			Where("refresh_token = ?", oldValue).
			Update("is_revoked", true).Error; err != nil {
			return err
		}
		return r.record(tx, newValue, userID, expiresAt)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenConflict) {
			return apperrors.ErrTokenConflict
		}
		return errors.Wrap(err, "[ledger gormrepo] Rotate")
	}
	return nil
}

package gormrepo

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-google-auth/internal/errors"
	"github.com/jrsteele09/go-google-auth/users"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repo persists users with GORM.
type Repo struct {
	db *gorm.DB
}

var _ users.Repo = (*Repo)(nil)

// New creates a user repository backed by the given GORM handle.
func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Upsert creates the user on first sign-in with the given email, or
// updates the mutable profile fields on every subsequent one. The
// returned user always has a populated ID.
//
// Concurrent first sign-ins for the same email race on the unique email
// index: the loser's insert conflicts and is retried as an update.
func (r *Repo) Upsert(ctx context.Context, params users.UpsertParams) (*users.User, error) {
	db := r.db.WithContext(ctx)

	var user users.User
	err := db.First(&user, "email = ?", params.Email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = users.User{
			Email:              params.Email,
			FullName:           params.FullName,
			Picture:            params.Picture,
			GoogleID:           params.GoogleID,
			GoogleRefreshToken: params.GoogleRefreshToken,
			IsActive:           true,
			CreatedAt:          time.Now().UTC(),
		}
		err = db.Create(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(err, "[users gormrepo] Upsert create")
		}
		// Lost a same-email race; the row exists now, fall through to update.
		if err = db.First(&user, "email = ?", params.Email).Error; err != nil {
			return nil, errors.Wrap(err, "[users gormrepo] Upsert reread")
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "[users gormrepo] Upsert lookup")
	}

	updates := map[string]any{
		"full_name": params.FullName,
		"picture":   params.Picture,
		"google_id": params.GoogleID,
	}
	if params.GoogleRefreshToken != "" {
		updates["google_refresh_token"] = params.GoogleRefreshToken
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "[users gormrepo] Upsert update")
	}
	return &user, nil
}

// FindByEmail looks a user up by email.
func (r *Repo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[users gormrepo] FindByEmail")
	}
	return &user, nil
}

// FindByID looks a user up by primary key.
func (r *Repo) FindByID(ctx context.Context, id uint) (*users.User, error) {
	var user users.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[users gormrepo] FindByID")
	}
	return &user, nil
}

// List returns every user ordered by ID.
func (r *Repo) List(ctx context.Context) ([]*users.User, error) {
	var all []*users.User
	if err := r.db.WithContext(ctx).Order("id").Find(&all).Error; err != nil {
		return nil, errors.Wrap(err, "[users gormrepo] List")
	}
	return all, nil
}

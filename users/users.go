package users

import (
	"time"
)

// User is a profile record created on first successful Google sign-in
// and updated on every subsequent one. Rows are never deleted by this
// service.
type User struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	GoogleID string `gorm:"uniqueIndex;not null" json:"-"`

	// Google's own refresh token, kept for background jobs outside this
	// service. Never serialized to clients.
	GoogleRefreshToken string `json:"-"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Profile is the client-visible projection of a User. It carries exactly
// the public fields and nothing provider-scoped.
type Profile struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Picture:  u.Picture,
		IsActive: u.IsActive,
	}
}

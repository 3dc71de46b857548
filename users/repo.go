package users

import "context"

// UpsertParams carries the verified identity fields applied on sign-in.
type UpsertParams struct {
	Email    string
	FullName string
	Picture  string
	GoogleID string

	// GoogleRefreshToken is only stored when non-empty: Google does not
	// reissue it on every consent, and an empty value must never clobber
	// a previously saved one.
	GoogleRefreshToken string
}

// Repo is the persistence contract for the user directory.
type Repo interface {
	Upsert(ctx context.Context, params UpsertParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

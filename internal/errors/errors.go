package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session service
var (
	// Identity-assertion errors (Google side of the login flow)
	ErrIdentityVerification = errors.New("identity verification failed")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenNotActive = errors.New("refresh token revoked or expired")
	ErrTokenConflict  = errors.New("refresh token value already recorded")

	// Session errors
	ErrSessionExpired  = errors.New("session expired")
	ErrUnauthenticated = errors.New("unauthenticated")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

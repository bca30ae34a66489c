package domain

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned by lookups when no identity matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Insert when the email is already taken.
	ErrUserExists = errors.New("user with this email already exists")
)

// UserRepository is the identity persistence contract consumed by the auth
// core. Each call is transactional on its own.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, email string) error
}

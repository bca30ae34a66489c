package services

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; the two are deliberately indistinguishable to prevent
	// account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionExpiredOrLoggedOut marks a structurally valid token whose
	// subject has no matching live session: the user logged out, or a newer
	// login superseded this token.
	ErrSessionExpiredOrLoggedOut = errors.New("session expired or logged out")
)

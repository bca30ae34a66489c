package federation

import "errors"

var (
	ErrProviderNotFound      = errors.New("provider not found or not enabled")
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
	ErrInvalidAuthState      = errors.New("invalid auth state parameter")
	ErrExchangeCodeFailed    = errors.New("failed to exchange authorization code for token")
	ErrFetchUserInfoFailed   = errors.New("failed to fetch user info from provider")
	ErrEmailNotProvided      = errors.New("provider did not supply an email address")
)

package echo

import "fmt"

// AuthError is the JSON error body returned by the auth endpoints.
type AuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	RetryAfter  int    `json:"retry_after,omitempty"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Error codes surfaced to callers. Session and signature failures stay
// distinguishable for diagnosability even though they all map to 401.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeTokenMalformed     = "token_malformed"
	CodeTokenExpired       = "token_expired"
	CodeInvalidSignature   = "invalid_signature"
	CodeSessionExpired     = "session_expired_or_logged_out"
	CodeUnknownProvider    = "unknown_provider"
	CodeInvalidState       = "invalid_state"
	CodeExchangeFailed     = "provider_token_exchange_failed"
	CodeProfileFetchFailed = "provider_profile_fetch_failed"
	CodeEmailNotProvided   = "email_not_provided"
	CodeEmailTaken         = "email_already_registered"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
	CodeInvalidRequest     = "invalid_request"
	CodeServerError        = "server_error"
)

func newAuthError(code, description string) *AuthError {
	return &AuthError{Code: code, Description: description}
}

package echo

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/hyeonlab/boardauth/domain"
	"github.com/hyeonlab/boardauth/internal/metrics"
	"github.com/hyeonlab/boardauth/internal/ratelimit"
	"github.com/hyeonlab/boardauth/internal/token"
	"github.com/hyeonlab/boardauth/services"
)

// currentUserKey is the echo context key holding the resolved identity.
const currentUserKey = "boardauth_current_user"

// CurrentUser returns the identity resolved by RequireAuth, or nil.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(currentUserKey).(*domain.User)
	return user
}

// RequireAuth resolves the Authorization bearer token to an identity and
// stores it on the request context. Decode failures keep their specific codes;
// a valid signature with no live session is reported as session expiry.
func (a *AuthAPI) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "missing authorization header"))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidRequest, "invalid authorization header format: expected Bearer token"))
		}

		user, err := a.service.Authenticate(c.Request().Context(), parts[1])
		if err != nil {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				return c.JSON(http.StatusUnauthorized, newAuthError(CodeTokenExpired, "token has expired"))
			case errors.Is(err, token.ErrInvalidSignature):
				return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidSignature, "token signature is invalid"))
			case errors.Is(err, token.ErrTokenMalformed):
				return c.JSON(http.StatusUnauthorized, newAuthError(CodeTokenMalformed, "token is malformed"))
			case errors.Is(err, services.ErrSessionExpiredOrLoggedOut):
				return c.JSON(http.StatusUnauthorized, newAuthError(CodeSessionExpired, "session expired or logged out"))
			case errors.Is(err, services.ErrInvalidCredentials):
				return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "could not validate credentials"))
			default:
				log.Error().Err(err).Msg("Identity resolution failed")
				return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to resolve identity"))
			}
		}

		c.Set(currentUserKey, user)
		return next(c)
	}
}

// RateLimit gates a route with a fixed-window policy keyed by caller IP and
// action. A full window rejects with 429 and a Retry-After hint; a limiter
// backend failure rejects rather than waving traffic through.
func (a *AuthAPI) RateLimit(action string, policy ratelimit.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := a.limiter.Allow(c.Request().Context(), action, c.RealIP(), policy)
			if err != nil {
				log.Error().Err(err).Str("action", action).Msg("Rate limiter unavailable")
				return c.JSON(http.StatusServiceUnavailable, newAuthError(CodeServerError, "rate limiter unavailable"))
			}

			if !decision.Allowed {
				metrics.RateLimitRejectedTotal.WithLabelValues(action).Inc()
				log.Warn().Str("action", action).Str("ip", c.RealIP()).Msg("Rate limit exceeded")

				retryAfter := int(decision.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, &AuthError{
					Code:        CodeRateLimitExceeded,
					Description: "too many requests, slow down",
					RetryAfter:  retryAfter,
				})
			}

			return next(c)
		}
	}
}

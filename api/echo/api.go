package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hyeonlab/boardauth/config"
	"github.com/hyeonlab/boardauth/domain"
	"github.com/hyeonlab/boardauth/internal/federation"
	"github.com/hyeonlab/boardauth/internal/ratelimit"
	"github.com/hyeonlab/boardauth/services"
)

// AuthAPI struct to hold dependencies.
type AuthAPI struct {
	service *services.AuthService
	limiter ratelimit.Limiter
	cfg     *config.ServerConfig
}

// NewAuthAPI initializes the auth API.
func NewAuthAPI(service *services.AuthService, limiter ratelimit.Limiter, cfg *config.ServerConfig) *AuthAPI {
	return &AuthAPI{
		service: service,
		limiter: limiter,
		cfg:     cfg,
	}
}

// RegisterRoutes registers the auth routes. Rate-limit gates sit before any
// handler (and before authentication), so a limited caller costs no verifier,
// issuer or broker work.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	loginGate := a.RateLimit("login", policyOf(a.cfg.RateLimitLogin))
	startGate := a.RateLimit("federated_start", policyOf(a.cfg.RateLimitFederatedStart))
	callbackGate := a.RateLimit("federated_callback", policyOf(a.cfg.RateLimitCallback))
	logoutGate := a.RateLimit("logout", policyOf(a.cfg.RateLimitLogout))

	e.POST("/signup", a.SignupHandler)
	e.POST("/login", a.LoginHandler, loginGate)
	e.GET("/auth/:provider", a.ProviderRedirectHandler, startGate)
	e.GET("/auth/:provider/callback", a.ProviderCallbackHandler, callbackGate)
	e.POST("/logout", a.LogoutHandler, logoutGate, a.RequireAuth)
	e.GET("/me", a.MeHandler, a.RequireAuth)
	e.PUT("/me/password", a.ChangePasswordHandler, a.RequireAuth)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type userResponse struct {
	Email           string `json:"email"`
	Provider        string `json:"provider"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	IsActive        bool   `json:"is_active"`
}

func toUserResponse(u *domain.User) *userResponse {
	return &userResponse{
		Email:           u.Email,
		Provider:        string(u.Provider),
		ProfileImageURL: u.ProfileImageURL,
		IsActive:        u.IsActive,
	}
}

// SignupHandler creates a local identity.
func (a *AuthAPI) SignupHandler(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, newAuthError(CodeInvalidRequest, "username and password are required"))
	}

	user, err := a.service.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return c.JSON(http.StatusBadRequest, newAuthError(CodeEmailTaken, "an account with this email already exists"))
		}
		log.Error().Err(err).Msg("Signup failed")
		return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to create account"))
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// LoginHandler handles local password login.
func (a *AuthAPI) LoginHandler(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, newAuthError(CodeInvalidRequest, "username and password are required"))
	}

	resp, err := a.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "incorrect username or password"))
		}
		log.Error().Err(err).Msg("Login failed")
		return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to log in"))
	}

	return c.JSON(http.StatusOK, resp)
}

// providerFromParam maps the :provider path segment to a known provider tag.
func providerFromParam(c echo.Context) (domain.AuthProvider, bool) {
	switch c.Param("provider") {
	case "google":
		return domain.ProviderGoogle, true
	case "kakao":
		return domain.ProviderKakao, true
	default:
		return "", false
	}
}

// ProviderRedirectHandler starts a federated login by redirecting to the
// provider's authorization URL.
func (a *AuthAPI) ProviderRedirectHandler(c echo.Context) error {
	provider, ok := providerFromParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, newAuthError(CodeUnknownProvider, "unknown provider"))
	}

	authURL, err := a.service.FederatedAuthURL(provider)
	if err != nil {
		if errors.Is(err, federation.ErrProviderNotFound) {
			return c.JSON(http.StatusNotFound, newAuthError(CodeUnknownProvider, "provider is not configured"))
		}
		log.Error().Err(err).Str("provider", string(provider)).Msg("Failed to build authorization URL")
		return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to start federated login"))
	}

	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// ProviderCallbackHandler completes a federated login from the provider
// callback.
func (a *AuthAPI) ProviderCallbackHandler(c echo.Context) error {
	provider, ok := providerFromParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, newAuthError(CodeUnknownProvider, "unknown provider"))
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" {
		return c.JSON(http.StatusBadRequest, newAuthError(CodeInvalidRequest, "missing authorization code"))
	}

	resp, err := a.service.FederatedLogin(c.Request().Context(), provider, state, code)
	if err != nil {
		return a.federationError(c, provider, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (a *AuthAPI) federationError(c echo.Context, provider domain.AuthProvider, err error) error {
	switch {
	case errors.Is(err, federation.ErrInvalidAuthState):
		return c.JSON(http.StatusBadRequest, newAuthError(CodeInvalidState, "state is missing, expired, or already used"))
	case errors.Is(err, federation.ErrExchangeCodeFailed):
		log.Warn().Err(err).Str("provider", string(provider)).Msg("Code exchange failed")
		return c.JSON(http.StatusBadRequest, newAuthError(CodeExchangeFailed, "failed to exchange authorization code"))
	case errors.Is(err, federation.ErrFetchUserInfoFailed):
		log.Warn().Err(err).Str("provider", string(provider)).Msg("Profile fetch failed")
		return c.JSON(http.StatusBadRequest, newAuthError(CodeProfileFetchFailed, "failed to fetch user profile"))
	case errors.Is(err, federation.ErrEmailNotProvided):
		return c.JSON(http.StatusBadRequest, newAuthError(CodeEmailNotProvided, "the provider did not supply an email address"))
	case errors.Is(err, federation.ErrProviderNotFound):
		return c.JSON(http.StatusNotFound, newAuthError(CodeUnknownProvider, "provider is not configured"))
	default:
		log.Error().Err(err).Str("provider", string(provider)).Msg("Federated login failed")
		return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to complete federated login"))
	}
}

// LogoutHandler deletes the caller's live session.
func (a *AuthAPI) LogoutHandler(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "not authenticated"))
	}

	if err := a.service.Logout(c.Request().Context(), user.Email); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Logout failed")
		return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to log out"))
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// MeHandler returns the authenticated identity.
func (a *AuthAPI) MeHandler(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "not authenticated"))
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

// ChangePasswordHandler rotates the caller's password and revokes the live
// session.
func (a *AuthAPI) ChangePasswordHandler(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "not authenticated"))
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, newAuthError(CodeInvalidRequest, "current_password and new_password are required"))
	}

	if err := a.service.ChangePassword(c.Request().Context(), user.Email, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, newAuthError(CodeInvalidCredentials, "current password is incorrect"))
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Password change failed")
		return c.JSON(http.StatusInternalServerError, newAuthError(CodeServerError, "failed to change password"))
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Password changed, please log in again"})
}

func policyOf(s config.RateLimitSettings) ratelimit.Policy {
	return ratelimit.Policy{Limit: s.Limit, Window: s.Window()}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyeonlab/boardauth/cache"
	"github.com/hyeonlab/boardauth/domain"
	"github.com/hyeonlab/boardauth/internal/federation"
	"github.com/hyeonlab/boardauth/internal/metrics"
	"github.com/hyeonlab/boardauth/internal/token"
)

// TokenResponse is the payload returned by both login flows.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService composes the credential verifier, token issuer, session store
// and federation broker into the public auth flows. It holds no per-request
// state; the session store and limiter carry all shared mutable state.
type AuthService struct {
	userRepo       domain.UserRepository
	sessions       cache.SessionStore
	issuer         *token.Issuer
	federation     *federation.Service
	passwordHasher PasswordHasher
	tokenTTL       time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo domain.UserRepository,
	sessions cache.SessionStore,
	issuer *token.Issuer,
	federationSvc *federation.Service,
	passwordHasher PasswordHasher,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		sessions:       sessions,
		issuer:         issuer,
		federation:     federationSvc,
		passwordHasher: passwordHasher,
		tokenTTL:       tokenTTL,
	}
}

// issueSession issues a bearer token for email and records it as the live
// session. The session write is always the final step of a login flow, so an
// aborted flow leaves no half-issued session behind.
func (s *AuthService) issueSession(ctx context.Context, email string) (*TokenResponse, error) {
	accessToken, err := s.issuer.Issue(email, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.sessions.Put(ctx, email, accessToken, s.tokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return &TokenResponse{AccessToken: accessToken, TokenType: "bearer"}, nil
}

// Login authenticates a local identity by email and password. An unknown
// email, a passwordless (federated-only) identity and a wrong password all
// yield the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	log.Debug().Str("email", email).Msg("Login attempt")

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		metrics.LoginFailureTotal.Inc()
		return nil, ErrInvalidCredentials
	}

	if !user.CanPasswordLogin() {
		log.Warn().Str("email", email).Msg("Login: identity has no password credential")
		metrics.LoginFailureTotal.Inc()
		return nil, ErrInvalidCredentials
	}

	ok, err := s.passwordHasher.Verify(*user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		log.Warn().Str("email", email).Msg("Login: incorrect password")
		metrics.LoginFailureTotal.Inc()
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issueSession(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	metrics.LoginSuccessTotal.Inc()
	log.Info().Str("email", user.Email).Msg("Login successful")
	return resp, nil
}

// Register creates a local identity with a hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := s.passwordHasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: &hash,
		Provider:     domain.ProviderLocal,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Insert(ctx, user); err != nil {
		return nil, err
	}

	metrics.UserRegisteredTotal.Inc()
	log.Info().Str("email", email).Msg("User registered")
	return user, nil
}

// Authenticate resolves a bearer token to an identity: decode, then compare
// against the live session record, then load the user. The session comparison
// is what makes a signed token revocable: a token that no longer matches the
// stored one bit-for-bit is rejected even though its signature verifies.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	subject, err := s.issuer.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	stored, err := s.sessions.Get(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if stored == "" || stored != tokenString {
		return nil, ErrSessionExpiredOrLoggedOut
	}

	user, err := s.userRepo.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// Logout removes the live session for email. Logging out twice is not an
// error.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	if err := s.sessions.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	metrics.SessionsRevokedTotal.Inc()
	log.Info().Str("email", email).Msg("Logged out")
	return nil
}

// FederatedAuthURL returns the provider authorization URL to redirect the
// caller to.
func (s *AuthService) FederatedAuthURL(provider domain.AuthProvider) (string, error) {
	return s.federation.AuthorizationURL(provider)
}

// FederatedLogin completes a provider callback: code exchange, profile fetch,
// identity reconciliation, then the usual token-and-session issue. Any step
// failure aborts the whole flow with that step's error.
func (s *AuthService) FederatedLogin(ctx context.Context, provider domain.AuthProvider, state, code string) (*TokenResponse, error) {
	userInfo, err := s.federation.HandleCallback(ctx, provider, state, code)
	if err != nil {
		return nil, err
	}

	user, err := s.reconcile(ctx, provider, userInfo)
	if err != nil {
		return nil, err
	}

	resp, err := s.issueSession(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	metrics.FederatedLoginTotal.WithLabelValues(string(provider)).Inc()
	log.Info().Str("email", user.Email).Str("provider", string(provider)).Msg("Federated login successful")
	return resp, nil
}

// reconcile upserts a local identity from a federated profile. A previously
// unseen email becomes a new passwordless identity; an existing one gets its
// provider, subject id and avatar refreshed (last provider wins). The
// password hash is never touched, so a local credential keeps working.
func (s *AuthService) reconcile(ctx context.Context, provider domain.AuthProvider, info *federation.ExternalUserInfo) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, info.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}

		now := time.Now().UTC()
		user = &domain.User{
			Email:           info.Email,
			Provider:        provider,
			SocialID:        info.ProviderUserID,
			ProfileImageURL: info.PictureURL,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.userRepo.Insert(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create federated user: %w", err)
		}
		metrics.UserRegisteredTotal.Inc()
		log.Info().Str("email", user.Email).Str("provider", string(provider)).Msg("Federated user created")
		return user, nil
	}

	user.Provider = provider
	user.SocialID = info.ProviderUserID
	if info.PictureURL != "" {
		user.ProfileImageURL = info.PictureURL
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update federated user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores a new hash, and drops
// the live session so the next request must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.CanPasswordLogin() {
		return ErrInvalidCredentials
	}
	ok, err := s.passwordHasher.Verify(*user.PasswordHash, currentPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.passwordHasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &hash
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return s.Logout(ctx, email)
}

package federation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/hyeonlab/boardauth/domain"
)

// stateTTL bounds how long an issued authorize redirect stays valid.
const stateTTL = 10 * time.Minute

// Service handles the OAuth2 federation flow against the registered
// providers: authorize redirect, CSRF state tracking, code exchange, and
// profile fetch. Reconciliation against local identities belongs to the
// auth orchestrator.
type Service struct {
	providers map[domain.AuthProvider]OAuth2Provider
	states    *ttlcache.Cache[string, domain.AuthProvider]
}

// NewService creates a new federation Service with no providers registered.
func NewService() *Service {
	states := ttlcache.New(
		ttlcache.WithTTL[string, domain.AuthProvider](stateTTL),
		ttlcache.WithDisableTouchOnHit[string, domain.AuthProvider](),
	)
	go states.Start()

	return &Service{
		providers: make(map[domain.AuthProvider]OAuth2Provider),
		states:    states,
	}
}

// RegisterProvider adds a provider implementation to the service.
func (s *Service) RegisterProvider(provider OAuth2Provider) {
	s.providers[provider.Name()] = provider
}

// Provider returns the registered provider for name.
func (s *Service) Provider(name domain.AuthProvider) (OAuth2Provider, error) {
	provider, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, nil
}

// generateAuthState generates a unique, unguessable string for the state
// parameter.
func generateAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// AuthorizationURL builds the URL to redirect the user to for authentication
// with the named provider, recording the state it embeds. No other local
// state is created by this step.
func (s *Service) AuthorizationURL(name domain.AuthProvider) (string, error) {
	provider, err := s.Provider(name)
	if err != nil {
		return "", err
	}

	state, err := generateAuthState()
	if err != nil {
		return "", fmt.Errorf("failed to generate auth state: %w", err)
	}
	s.states.Set(state, name, ttlcache.DefaultTTL)

	return provider.AuthCodeURL(state), nil
}

// consumeState validates and single-uses a state value for the named
// provider.
func (s *Service) consumeState(name domain.AuthProvider, state string) error {
	if state == "" {
		return ErrInvalidAuthState
	}
	item := s.states.Get(state)
	if item == nil || item.IsExpired() || item.Value() != name {
		return ErrInvalidAuthState
	}
	s.states.Delete(state)
	return nil
}

// HandleCallback processes the provider callback: it validates the state,
// exchanges the authorization code, and fetches the normalized profile.
// Every step failure aborts the flow; nothing is retried, since a failed
// exchange means an invalid or reused code. A profile without an email is rejected,
// since email is the local identity key.
func (s *Service) HandleCallback(ctx context.Context, name domain.AuthProvider, state, code string) (*ExternalUserInfo, error) {
	if err := s.consumeState(name, state); err != nil {
		return nil, err
	}

	provider, err := s.Provider(name)
	if err != nil {
		return nil, err
	}

	token, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeCodeFailed, err)
	}

	userInfo, err := provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	if userInfo.Email == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmailNotProvided, name)
	}

	return userInfo, nil
}

// SeedState registers a pre-generated state value. Exposed for tests that
// drive HandleCallback directly.
func (s *Service) SeedState(name domain.AuthProvider, state string) {
	s.states.Set(state, name, ttlcache.DefaultTTL)
}

// Close stops the state cache cleanup goroutine.
func (s *Service) Close() error {
	s.states.Stop()
	return nil
}

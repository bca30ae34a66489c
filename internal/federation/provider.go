package federation

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/hyeonlab/boardauth/domain"
)

// defaultHTTPTimeout bounds every outbound call to a provider. A timed-out
// exchange or userinfo fetch surfaces as the corresponding federation error
// and is never retried.
const defaultHTTPTimeout = 10 * time.Second

// ExternalUserInfo holds standardized user information retrieved from an
// external OAuth2 provider.
type ExternalUserInfo struct {
	ProviderUserID string // Unique ID of the user within the external provider (e.g., Google's 'sub')
	Email          string
	PictureURL     string
	RawData        map[string]any // Raw user data from the provider
}

// ProviderConfig carries the per-provider OAuth2 client settings consumed from
// process configuration.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuth2Provider defines the interface for an external OAuth2 identity
// provider. Implementations handle provider-specific endpoints and userinfo
// field mappings; the control flow is shared.
type OAuth2Provider interface {
	// Name returns the unique identifier for the provider (e.g. "google").
	Name() domain.AuthProvider

	// AuthCodeURL generates the authorization URL the user should be
	// redirected to, carrying the given CSRF state.
	AuthCodeURL(state string) string

	// ExchangeCode exchanges an authorization code for an OAuth2 token at
	// the provider's token endpoint.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUserInfo uses the provider access token to retrieve user
	// information and map it into an ExternalUserInfo.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error)
}

// BaseProvider provides the shared descriptor and code-exchange mechanics.
// Specific providers embed it and implement FetchUserInfo.
type BaseProvider struct {
	name            domain.AuthProvider
	conf            oauth2.Config
	authCodeOptions []oauth2.AuthCodeOption
	httpClient      *http.Client
}

// NewBaseProvider constructs the shared part of a provider from its endpoint
// pair and client settings.
func NewBaseProvider(name domain.AuthProvider, cfg ProviderConfig, endpoint oauth2.Endpoint, opts ...oauth2.AuthCodeOption) *BaseProvider {
	return &BaseProvider{
		name: name,
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		authCodeOptions: opts,
		httpClient:      &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (b *BaseProvider) Name() domain.AuthProvider {
	return b.name
}

// AuthCodeURL builds the provider authorization URL with response_type=code,
// client id, redirect URI, scopes and any provider-specific extras.
func (b *BaseProvider) AuthCodeURL(state string) string {
	return b.conf.AuthCodeURL(state, b.authCodeOptions...)
}

// ExchangeCode posts the authorization code to the token endpoint. The
// bounded-timeout client is injected through the oauth2 context.
func (b *BaseProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	return b.conf.Exchange(ctx, code)
}

// get performs an authenticated GET against a provider API endpoint.
func (b *BaseProvider) get(ctx context.Context, endpoint string, token *oauth2.Token) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)
	return b.httpClient.Do(req)
}

package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/hyeonlab/boardauth/domain"
)

// Google endpoints are package variables so tests can point them at a mock
// server.
var (
	GoogleAuthEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenEndpoint    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleProvider implements the OAuth2Provider interface for Google.
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a new GoogleProvider. Scopes default to the OIDC
// profile set; Google always serves email through them.
func NewGoogleProvider(cfg ProviderConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrProviderMisconfigured
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}

	base := NewBaseProvider(domain.ProviderGoogle, cfg,
		oauth2.Endpoint{
			AuthURL:  GoogleAuthEndpoint,
			TokenURL: GoogleTokenEndpoint,
		},
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return &GoogleProvider{BaseProvider: base}, nil
}

// FetchUserInfo retrieves the OIDC userinfo document and maps it.
func (g *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	resp, err := g.get(ctx, GoogleUserInfoEndpoint, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info from Google: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google user info response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch user info from Google: status %d, body: %s", resp.StatusCode, string(rawBody))
	}

	var rawUserInfo struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.Unmarshal(rawBody, &rawUserInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Google user info: %w", err)
	}

	var rawDataMap map[string]any
	_ = json.Unmarshal(rawBody, &rawDataMap)

	return &ExternalUserInfo{
		ProviderUserID: rawUserInfo.Sub,
		Email:          rawUserInfo.Email,
		PictureURL:     rawUserInfo.Picture,
		RawData:        rawDataMap,
	}, nil
}

var _ OAuth2Provider = (*GoogleProvider)(nil)

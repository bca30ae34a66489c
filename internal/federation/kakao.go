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

// Kakao endpoints are package variables so tests can point them at a mock
// server.
var (
	KakaoAuthEndpoint     = "https://kauth.kakao.com/oauth/authorize"
	KakaoTokenEndpoint    = "https://kauth.kakao.com/oauth/token"
	KakaoUserInfoEndpoint = "https://kapi.kakao.com/v2/user/me"
)

// KakaoProvider implements the OAuth2Provider interface for Kakao. Unlike
// Google, the user id is a top-level number and the email lives under
// kakao_account, so the field mapping differs while the flow is shared.
type KakaoProvider struct {
	*BaseProvider
}

// NewKakaoProvider creates a new KakaoProvider.
func NewKakaoProvider(cfg ProviderConfig) (*KakaoProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrProviderMisconfigured
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"account_email", "profile_image"}
	}

	base := NewBaseProvider(domain.ProviderKakao, cfg,
		oauth2.Endpoint{
			AuthURL:  KakaoAuthEndpoint,
			TokenURL: KakaoTokenEndpoint,
		},
	)
	return &KakaoProvider{BaseProvider: base}, nil
}

// FetchUserInfo retrieves the Kakao user document and maps it.
func (k *KakaoProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*ExternalUserInfo, error) {
	resp, err := k.get(ctx, KakaoUserInfoEndpoint, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info from Kakao: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Kakao user info response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch user info from Kakao: status %d, body: %s", resp.StatusCode, string(rawBody))
	}

	var rawUserInfo struct {
		ID           json.Number `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
		Properties struct {
			ProfileImage string `json:"profile_image"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(rawBody, &rawUserInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Kakao user info: %w", err)
	}

	var rawDataMap map[string]any
	_ = json.Unmarshal(rawBody, &rawDataMap)

	picture := rawUserInfo.KakaoAccount.Profile.ProfileImageURL
	if picture == "" {
		picture = rawUserInfo.Properties.ProfileImage
	}

	return &ExternalUserInfo{
		ProviderUserID: rawUserInfo.ID.String(),
		Email:          rawUserInfo.KakaoAccount.Email,
		PictureURL:     picture,
		RawData:        rawDataMap,
	}, nil
}

var _ OAuth2Provider = (*KakaoProvider)(nil)

package federation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hyeonlab/boardauth/internal/federation"
)

func testGoogleConfig() federation.ProviderConfig {
	return federation.ProviderConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost/auth/google/callback",
	}
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	provider, err := federation.NewGoogleProvider(testGoogleConfig())
	require.NoError(t, err)

	authURL := provider.AuthCodeURL("test-state")

	assert.Contains(t, authURL, federation.GoogleAuthEndpoint)
	assert.Contains(t, authURL, "client_id=test-client-id")
	assert.Contains(t, authURL, "response_type=code")
	assert.Contains(t, authURL, "state=test-state")
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, "prompt=select_account")
}

func TestGoogleProvider_FetchUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/oauth2/v3/userinfo") {
			assert.Equal(t, "Bearer dummy-access-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"sub": "1234567890",
				"name": "Test User",
				"picture": "https://example.com/avatar.jpg",
				"email": "test.user@example.com",
				"email_verified": true
			}`))
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	originalEndpoint := federation.GoogleUserInfoEndpoint
	federation.GoogleUserInfoEndpoint = server.URL + "/oauth2/v3/userinfo"
	defer func() { federation.GoogleUserInfoEndpoint = originalEndpoint }()

	provider, err := federation.NewGoogleProvider(testGoogleConfig())
	require.NoError(t, err)

	dummyToken := &oauth2.Token{AccessToken: "dummy-access-token"}

	userInfo, err := provider.FetchUserInfo(context.Background(), dummyToken)
	require.NoError(t, err)
	require.NotNil(t, userInfo)

	assert.Equal(t, "1234567890", userInfo.ProviderUserID)
	assert.Equal(t, "test.user@example.com", userInfo.Email)
	assert.Equal(t, "https://example.com/avatar.jpg", userInfo.PictureURL)

	require.NotNil(t, userInfo.RawData)
	assert.Equal(t, "Test User", userInfo.RawData["name"])
	assert.Equal(t, true, userInfo.RawData["email_verified"])
}

func TestGoogleProvider_FetchUserInfo_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	originalEndpoint := federation.GoogleUserInfoEndpoint
	federation.GoogleUserInfoEndpoint = server.URL
	defer func() { federation.GoogleUserInfoEndpoint = originalEndpoint }()

	provider, err := federation.NewGoogleProvider(testGoogleConfig())
	require.NoError(t, err)
	dummyToken := &oauth2.Token{AccessToken: "dummy"}

	_, err = provider.FetchUserInfo(context.Background(), dummyToken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch user info from Google: status 500")
}

func TestNewGoogleProvider_Misconfigured(t *testing.T) {
	_, err := federation.NewGoogleProvider(federation.ProviderConfig{ClientID: "only-id"})
	assert.ErrorIs(t, err, federation.ErrProviderMisconfigured)
}

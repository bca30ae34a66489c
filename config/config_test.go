package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())

	assert.Equal(t, 5, cfg.RateLimitLogin.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimitLogin.Window())
	assert.Equal(t, 10, cfg.RateLimitLogout.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimitLogout.Window())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL())
}

func TestLoadConfig_ProviderEnvOverride(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-google-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-google-secret")
	t.Setenv("GOOGLE_REDIRECT_URI", "https://example.com/auth/google/callback")
	t.Setenv("KAKAO_CLIENT_ID", "env-kakao-id")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-google-id", cfg.Google.ClientID)
	assert.Equal(t, "env-google-secret", cfg.Google.ClientSecret)
	assert.Equal(t, "https://example.com/auth/google/callback", cfg.Google.RedirectURI)
	assert.Equal(t, "env-kakao-id", cfg.Kakao.ClientID)
}

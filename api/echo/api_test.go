package echo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/hyeonlab/boardauth/api/echo"
	"github.com/hyeonlab/boardauth/cache"
	"github.com/hyeonlab/boardauth/config"
	"github.com/hyeonlab/boardauth/domain"
	"github.com/hyeonlab/boardauth/internal/auth"
	"github.com/hyeonlab/boardauth/internal/federation"
	"github.com/hyeonlab/boardauth/internal/ratelimit"
	"github.com/hyeonlab/boardauth/internal/token"
	"github.com/hyeonlab/boardauth/services"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *memoryUserRepo) Insert(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return domain.ErrUserExists
	}
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *memoryUserRepo) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, email)
	return nil
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	sessions := cache.NewMemorySessionStore()
	t.Cleanup(func() { _ = sessions.Close() })
	limiter := ratelimit.NewMemoryLimiter()
	t.Cleanup(func() { _ = limiter.Close() })
	fedSvc := federation.NewService()
	t.Cleanup(func() { _ = fedSvc.Close() })

	cfg := &config.ServerConfig{
		RateLimitLogin:          config.RateLimitSettings{Limit: 3, WindowSeconds: 60},
		RateLimitFederatedStart: config.RateLimitSettings{Limit: 5, WindowSeconds: 60},
		RateLimitCallback:       config.RateLimitSettings{Limit: 5, WindowSeconds: 60},
		RateLimitLogout:         config.RateLimitSettings{Limit: 10, WindowSeconds: 60},
	}

	svc := services.NewAuthService(
		&memoryUserRepo{users: make(map[string]*domain.User)},
		sessions,
		token.NewIssuer([]byte("test-key")),
		fedSvc,
		auth.NewBcryptPasswordHasher(4),
		time.Hour,
	)

	e := echo.New()
	api.NewAuthAPI(svc, limiter, cfg).RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupLoginMeLogoutFlow(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/signup", `{"username":"a@x.com","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/login", `{"username":"a@x.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))
	assert.Equal(t, "bearer", tokenResp.TokenType)
	require.NotEmpty(t, tokenResp.AccessToken)

	rec = doJSON(e, http.MethodGet, "/me", "", tokenResp.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"a@x.com"`)

	rec = doJSON(e, http.MethodPost, "/logout", "", tokenResp.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/me", "", tokenResp.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeSessionExpired)
}

func TestLogin_UnknownUser(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/login", `{"username":"a@x.com","password":"secret"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeInvalidCredentials)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestLogin_RateLimited(t *testing.T) {
	e := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(e, http.MethodPost, "/login", `{"username":"a@x.com","password":"bad"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d should pass the gate", i+1)
	}

	rec := doJSON(e, http.MethodPost, "/login", `{"username":"a@x.com","password":"bad"}`, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeRateLimitExceeded)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMe_TokenErrors(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/me", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/me", "", "not.a.jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeTokenMalformed)

	forged, err := token.NewIssuer([]byte("other-key")).Issue("a@x.com", time.Hour)
	require.NoError(t, err)
	rec = doJSON(e, http.MethodGet, "/me", "", forged)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeInvalidSignature)
}

func TestProviderRedirect_UnknownProvider(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/auth/naver", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeUnknownProvider)
}

func TestProviderRedirect_UnconfiguredProvider(t *testing.T) {
	e := newTestServer(t)

	// google is a known tag but was not registered with the broker.
	rec := doJSON(e, http.MethodGet, "/auth/google", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeUnknownProvider)
}

func TestCallback_MissingCode(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/auth/google/callback?state=s", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), api.CodeInvalidRequest)
}

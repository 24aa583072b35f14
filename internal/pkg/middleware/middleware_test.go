package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/pkg/middleware"
	"cratetrack/internal/pkg/token"
)

func okHandler(t *testing.T, check func(domain.Actor)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		require.True(t, ok)
		if check != nil {
			check(actor)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth_ValidTokenAttachesActor(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)
	signed, err := svc.GenerateToken("user-1", "tenant-a", "operator")
	require.NoError(t, err)

	h := middleware.NewAuthMiddleware(svc)(okHandler(t, func(a domain.Actor) {
		assert.Equal(t, "tenant-a", a.TenantID)
		assert.Equal(t, "user-1", a.UserID)
		assert.Equal(t, domain.RoleOperator, a.Role)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/crates", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	h := middleware.NewAuthMiddleware(token.NewService("segredo", time.Hour))(okHandler(t, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/crates", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Category)
}

func TestRequireRoles(t *testing.T) {
	h := middleware.RequireRoles(domain.RoleAdmin)(okHandler(t, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{TenantID: "t", UserID: "u", Role: domain.RoleViewer}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(middleware.WithActor(context.Background(), domain.Actor{TenantID: "t", UserID: "u", Role: domain.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	return m.Called(ctx, key, value, exp).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Expire(ctx context.Context, key string, exp time.Duration) error {
	return m.Called(ctx, key, exp).Error(0)
}

func TestRateLimiter(t *testing.T) {
	log := logger.NewLoggerWithWriter("error", io.Discard)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	c := new(mockCache)
	c.On("Incr", mock.Anything, "rate-limit:10.0.0.1").Return(int64(1), nil).Once()
	c.On("Expire", mock.Anything, "rate-limit:10.0.0.1", time.Minute).Return(nil).Once()
	c.On("Incr", mock.Anything, "rate-limit:10.0.0.1").Return(int64(3), nil).Once()

	h := middleware.RateLimiter(c, 2, time.Minute, log)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/crates", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	c.AssertExpectations(t)
}

func TestRateLimiter_CacheFailureLetsRequestThrough(t *testing.T) {
	c := new(mockCache)
	c.On("Incr", mock.Anything, mock.Anything).Return(int64(0), errors.New("redis down"))

	h := middleware.RateLimiter(c, 1, time.Minute, logger.NewLoggerWithWriter("error", io.Discard))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

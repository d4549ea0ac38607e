package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"urlshorten/internal/config"
	"urlshorten/internal/model"
	auth "urlshorten/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewManager("secret", "urlshorten", 1)
	router := gin.New()
	router.GET("/me", AuthMiddleware(manager), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID), "role": c.GetString(ContextRole)})
	})
	router.GET("/admin", AuthMiddleware(manager), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	userToken, err := manager.GenerateToken(7, "alice", model.RoleUser)
	require.NoError(t, err)
	adminToken, err := manager.GenerateToken(1, "admin", model.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		perform(router, http.MethodGet, "/me", map[string]string{"Authorization": "Token " + userToken}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		perform(router, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer broken"}).Code)

	w := perform(router, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + userToken})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"user"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden,
		perform(router, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + userToken}).Code)
	assert.Equal(t, http.StatusNoContent,
		perform(router, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + adminToken}).Code)
}

func newLimitedRouter(limiter Limiter, skip []string) *gin.Engine {
	router := gin.New()
	router.Use(RateLimitWith(limiter, skip, zap.NewNop().Sugar()))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestIPRateLimiter(t *testing.T) {
	router := newLimitedRouter(NewIPRateLimiter(60, 2), []string{"/health"})

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/x", nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/x", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(router, http.MethodGet, "/api/x", nil).Code)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/health", nil).Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(nil, &config.Limit{Enabled: false}, zap.NewNop().Sugar()))
	router.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/x", nil).Code)
	}
}

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func (f *fakeCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestRedisWindowLimiter(t *testing.T) {
	fc := &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
	limiter := NewRedisWindowLimiter(fc, 2, time.Minute)
	fixed := time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "第 %d 次请求", i+1)
	}
	assert.Len(t, fc.expires, 1)

	ok, err := limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "不同 IP 独立计数")

	fixed = fixed.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "新窗口重新计数")
}

func TestRateLimitFailsOpen(t *testing.T) {
	fc := &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}, err: errors.New("redis down")}
	router := newLimitedRouter(NewRedisWindowLimiter(fc, 1, time.Minute), nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/x", nil).Code)
	}
}

func TestRequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(RequestID(), GinZapLogger(zap.New(core)), GinZapRecovery(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := perform(router, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = perform(router, http.MethodGet, "/ok", map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = perform(router, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	assert.Equal(t, 1, logs.FilterMessage("处理请求时发生 panic").Len())
	assert.Equal(t, 1, logs.FilterMessage("请求处理失败").Len())
	entries := logs.FilterMessage("请求完成").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[1].ContextMap()["request_id"])
}

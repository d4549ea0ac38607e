package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"urlshorten/internal/middleware"
	"urlshorten/internal/model"
	"urlshorten/internal/repository"
	"urlshorten/internal/repository/gormstore"
	"urlshorten/internal/shortcode"
	"urlshorten/internal/shortener"
	auth "urlshorten/pkg/jwt"
)

const testBaseURL = "http://sho.rt"

type testEnv struct {
	router     *gin.Engine
	store      *gormstore.Store
	userToken  string
	adminToken string
}

// setupTest 为集成测试初始化一个干净的环境
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := gormstore.New(db)
	require.NoError(t, store.AutoMigrate())

	log := zap.NewNop().Sugar()
	opts := shortener.Options{BaseURL: testBaseURL, MaxURLLength: 200}
	alloc := shortener.NewAllocator(store, shortcode.NewGenerator(), opts, log)
	resolver := shortener.NewResolver(store, opts, log)
	tokens := auth.NewManager("test-secret", "urlshorten", 1)

	router := gin.New()
	RegisterRoutes(router,
		NewShortLinkHandler(alloc, resolver, store, log),
		NewAdminHandler(store, 200, log),
		NewAuthHandler(store, tokens, log),
		middleware.AuthMiddleware(tokens),
		middleware.AdminMiddleware(),
	)

	userToken, err := tokens.GenerateToken(2, "alice", model.RoleUser)
	require.NoError(t, err)
	adminToken, err := tokens.GenerateToken(1, "admin", model.RoleAdmin)
	require.NoError(t, err)

	return &testEnv{router: router, store: store, userToken: userToken, adminToken: adminToken}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) create(t *testing.T, body CreateShortLinkRequest) ShortLinkResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/api/shorten", e.userToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp ShortLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestCreateAndRedirect 测试创建和重定向的完整流程
func TestCreateAndRedirect(t *testing.T) {
	env := setupTest(t)

	created := env.create(t, CreateShortLinkRequest{OriginalURL: "https://example.com/a"})
	assert.NotZero(t, created.ID)
	assert.Len(t, created.Code, shortcode.DefaultLength)
	assert.Equal(t, testBaseURL+"/r/"+created.Code, created.ShortURL)
	assert.Equal(t, int64(0), created.ClickCount)
	assert.True(t, created.IsActive)

	for i := 1; i <= 2; i++ {
		w := env.do(http.MethodGet, "/r/"+created.Code, "", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com/a", w.Header().Get("Location"))
	}

	link, err := env.store.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), link.ClickCount)
}

func TestRedirectNotFound(t *testing.T) {
	env := setupTest(t)

	w := env.do(http.MethodGet, "/r/nope00", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestCreateValidation(t *testing.T) {
	env := setupTest(t)

	w := env.do(http.MethodPost, "/api/shorten", "", CreateShortLinkRequest{OriginalURL: "https://example.com"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/shorten", env.userToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/shorten", env.userToken, CreateShortLinkRequest{OriginalURL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long := "https://example.com/" + strings.Repeat("x", 300)
	w = env.do(http.MethodPost, "/api/shorten", env.userToken, CreateShortLinkRequest{OriginalURL: long})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewThenSubmit(t *testing.T) {
	env := setupTest(t)

	w := env.do(http.MethodPost, "/api/shorten/preview", env.userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview shortener.Preview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, testBaseURL+"/r/"+preview.Code, preview.ShortenedURL)

	alias := "my-link"
	created := env.create(t, CreateShortLinkRequest{
		OriginalURL:  "https://example.com/preview",
		ShortenedURL: preview.ShortenedURL,
		CustomAlias:  &alias,
	})
	assert.Equal(t, preview.Code, created.Code)
	require.NotNil(t, created.CustomAlias)
	assert.Equal(t, "my-link", *created.CustomAlias)

	w = env.do(http.MethodPost, "/api/shorten", env.userToken, CreateShortLinkRequest{
		OriginalURL:  "https://example.com/other",
		ShortenedURL: preview.ShortenedURL,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	env := setupTest(t)
	a := env.create(t, CreateShortLinkRequest{OriginalURL: "https://golang.org/doc"})
	b := env.create(t, CreateShortLinkRequest{OriginalURL: "https://example.com/b"})
	require.Equal(t, http.StatusFound, env.do(http.MethodGet, "/r/"+b.Code, "", nil).Code)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/links", env.userToken, nil).Code)

	w := env.do(http.MethodGet, "/api/links?q=golang&page=1&size=10", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListLinksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.ID, list.Items[0].ID)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/links/%d", b.ID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"click_count":1`)

	inactive := false
	w = env.do(http.MethodPut, fmt.Sprintf("/api/links/%d", a.ID), env.adminToken, UpdateLinkRequest{IsActive: &inactive})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/r/"+a.Code, "", nil).Code)

	empty := " "
	w = env.do(http.MethodPut, fmt.Sprintf("/api/links/%d", a.ID), env.adminToken, UpdateLinkRequest{OriginalURL: &empty})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/stats", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_links":2,"total_clicks":1,"active_links":1}`, w.Body.String())

	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, fmt.Sprintf("/api/links/%d", b.ID), env.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, fmt.Sprintf("/api/links/%d", b.ID), env.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/r/"+b.Code, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/links/abc", env.adminToken, nil).Code)
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := setupTest(t)

	w := env.do(http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: "carol", Email: "carol2@example.com", Password: "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/auth/login", "", LoginRequest{Username: "carol", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/auth/login", "", LoginRequest{Username: "nobody", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/auth/login", "", LoginRequest{Username: "carol", Password: "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	w = env.do(http.MethodGet, "/api/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"carol"`)
	assert.NotContains(t, w.Body.String(), "password")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)
	w := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	h := NewShortLinkHandler(nil, nil, failingPinger{}, zap.NewNop().Sugar())
	router := gin.New()
	router.GET("/health", h.HealthCheck)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: empty", shortener.ErrInvalidInput), http.StatusBadRequest},
		{shortener.ErrDuplicateShortLink, http.StatusConflict},
		{shortener.ErrNotFound, http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{shortener.ErrAllocationExhausted, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %w", shortener.ErrPersistence, errors.New("boom")), http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostering_backend/internal/config"
	"rostering_backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *utils.TokenManager {
	t.Helper()
	tm, err := utils.NewTokenManager("middleware-secret", time.Hour, "rostering-test")
	require.NoError(t, err)
	return tm
}

func protectedRouter(tokens *utils.TokenManager, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok, "username": c.GetString(ContextUsername)})
	})
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	r := protectedRouter(tokens, "admin", "staff")
	good, err := tokens.GenerateAccessToken(7, "alice", "staff")
	require.NoError(t, err)
	other, err := utils.NewTokenManager("another-secret", time.Hour, "rostering-test")
	require.NoError(t, err)
	forged, err := other.GenerateAccessToken(7, "alice", "admin")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong signing key", "Bearer " + forged, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusOK},
		{"lowercase scheme", "bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, "/me", tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"ok":true,"username":"alice"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), utils.ErrCodeUnauthorized)
			}
		})
	}
}

func TestRoleAuthMiddlewareRejectsOtherRoles(t *testing.T) {
	tokens := newTokens(t)
	r := protectedRouter(tokens, "admin")
	staffToken, err := tokens.GenerateAccessToken(3, "bob", "staff")
	require.NoError(t, err)
	adminToken, err := tokens.GenerateAccessToken(1, "admin1", "admin")
	require.NoError(t, err)

	w := doGet(r, "/me", "Bearer "+staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), utils.ErrCodeForbidden)

	assert.Equal(t, http.StatusOK, doGet(r, "/me", "Bearer "+adminToken).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(utils.RequestIDKey)) })

	w := doGet(r, "/", "")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func rateLimitedRouter(cfg config.RedisConfig, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.POST("/login", RateLimit(cfg, rdb), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func post(r http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.RedisConfig{LoginRateLimitOn: true, LoginRateCapacity: 3, LoginRateRefill: time.Hour, LoginRateKeyPrefix: "rl:test"}
	r := rateLimitedRouter(cfg, rdb)

	for i := 0; i < 3; i++ {
		w := post(r)
		require.Equal(t, http.StatusNoContent, w.Code, "request %d", i)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := post(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), utils.ErrCodeTooManyRequests)
	assert.True(t, mr.Exists("rl:test:10.0.0.1"))
}

func TestRateLimitPassThrough(t *testing.T) {
	cfg := config.RedisConfig{LoginRateLimitOn: true, LoginRateCapacity: 1, LoginRateRefill: time.Hour, LoginRateKeyPrefix: "rl"}

	t.Run("no client", func(t *testing.T) {
		r := rateLimitedRouter(cfg, nil)
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusNoContent, post(r).Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		disabled := cfg
		disabled.LoginRateLimitOn = false
		r := rateLimitedRouter(disabled, rdb)
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusNoContent, post(r).Code)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { rdb.Close() })
		mr.Close()
		r := rateLimitedRouter(cfg, rdb)
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusNoContent, post(r).Code)
		}
	})
}

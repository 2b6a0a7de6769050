package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/folio-space/core/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	tokens  map[string]*jwt.Claims
	touched []string
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*jwt.Claims, error) {
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	return nil, jwt.ErrInvalidToken
}

func (f *fakeValidator) Touch(_ context.Context, userID, sessionID string) {
	f.touched = append(f.touched, userID+"/"+sessionID)
}

func newValidator() *fakeValidator {
	return &fakeValidator{tokens: map[string]*jwt.Claims{
		"good": {UserID: "u1", SessionID: "s1"},
	}}
}

// unreachableRedis points at a closed port so every command fails fast.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := gin.New()
	r.GET("/x", Auth(newValidator()), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":0`)
}

func TestAuthAcceptsBearerAndTouchesSession(t *testing.T) {
	v := newValidator()
	r := gin.New()
	r.GET("/x", Auth(v), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c)+":"+CurrentSessionID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1:s1", w.Body.String())
	assert.Equal(t, []string{"u1/s1"}, v.touched)
}

func TestOptionalAuthPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/x", OptionalAuth(newValidator()), func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.String(http.StatusOK, "in")
			return
		}
		c.String(http.StatusOK, "out")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "bad")
	r.ServeHTTP(w, req)
	assert.Equal(t, "out", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x?token=good", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "in", w.Body.String())
}

func TestExtractTokenOrder(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		query  string
		want   string
	}{
		{"header wins", "Bearer h", "c", "q", "h"},
		{"cookie before query", "", "c", "q", "c"},
		{"query fallback", "", "", "q", "q"},
		{"nothing", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/x"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req
			assert.Equal(t, tt.want, ExtractToken(c))
		})
	}
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("  bearer abc "))
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Empty(t, NormalizeToken("   "))
}

func TestLoggerRecordsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Contains(t, entries[1].ContextMap()["error"], "db down")
	assert.Equal(t, "/fail", entries[1].ContextMap()["path"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	rdb := unreachableRedis()
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/contato", RateLimit(rdb, RateLimitOptions{Name: "contact", Max: 1, Window: time.Minute}),
		func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contato", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestRateLimitNilClient(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(nil, RateLimitOptions{}), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPCacheMissWhenRedisDown(t *testing.T) {
	rdb := unreachableRedis()
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.GET("/api/v1/projects", HTTPCache(rdb, HTTPCacheOptions{}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get("x-folio-cache"))
}

func TestShouldSkipCachePath(t *testing.T) {
	patterns := []string{"/api/v1/admin/*", "/api/v1/health"}
	assert.True(t, shouldSkipCachePath("/api/v1/admin/projects", patterns))
	assert.True(t, shouldSkipCachePath("/api/v1/health", patterns))
	assert.False(t, shouldSkipCachePath("/api/v1/projects", patterns))
}

func TestIsCacheableResponse(t *testing.T) {
	h := http.Header{}
	assert.True(t, isCacheableResponse(http.StatusOK, h))
	assert.False(t, isCacheableResponse(http.StatusNotFound, h))
	h.Set("Cache-Control", "no-store")
	assert.False(t, isCacheableResponse(http.StatusOK, h))
}

func TestResolveIdempotenceKey(t *testing.T) {
	newCtx := func(body, header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
		if header != "" {
			c.Request.Header.Set(idempotenceHeader, header)
		}
		return c
	}

	k1, err := resolveIdempotenceKey(newCtx(`{"name":"Ana"}`, ""))
	require.NoError(t, err)
	k2, err := resolveIdempotenceKey(newCtx(`{"name":"Ana"}`, ""))
	require.NoError(t, err)
	k3, err := resolveIdempotenceKey(newCtx(`{"name":"Bia"}`, ""))
	require.NoError(t, err)
	assert.Len(t, k1, 64)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	explicit, err := resolveIdempotenceKey(newCtx(`{}`, "abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", explicit)

	empty, err := resolveIdempotenceKey(newCtx("", ""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIdempotenceKeepsBodyReadable(t *testing.T) {
	rdb := unreachableRedis()
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.POST("/c", Idempotence(rdb), func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusCreated, body["name"])
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/c", strings.NewReader(`{"name":"Ana"}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ana", w.Body.String())
}

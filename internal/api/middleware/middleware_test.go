package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campdesk/config"
	"campdesk/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret",
		Issuer:         "campdesk-test",
		AccessTokenTTL: time.Minute,
	})
}

func protectedEngine(mgr *jwt.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(mgr, nil, zap.NewNop()))
	if len(roles) > 0 {
		r.Use(RoleAuth(roles...))
	}
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"role":    c.GetString("role"),
			"name":    c.GetString("user_name"),
		})
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth_MissingHeader(t *testing.T) {
	w := doGet(protectedEngine(newTestJWT()), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":10002`)
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	mgr := newTestJWT()
	tok, err := mgr.GenerateAccessToken("u-1", "Ana", RoleStaff)
	require.NoError(t, err)

	w := doGet(protectedEngine(mgr), "Token "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_ForeignSignature(t *testing.T) {
	other := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "a-completely-different-secret",
		AccessTokenTTL: time.Minute,
	})
	tok, err := other.GenerateAccessToken("u-1", "Ana", RoleStaff)
	require.NoError(t, err)

	w := doGet(protectedEngine(newTestJWT()), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_SetsOperator(t *testing.T) {
	mgr := newTestJWT()
	tok, err := mgr.GenerateAccessToken("u-1", "Ana", RoleStaff)
	require.NoError(t, err)

	w := doGet(protectedEngine(mgr), "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u-1","role":"staff","name":"Ana"}`, w.Body.String())
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	tests := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{"admin on admin route", RoleAdmin, []string{RoleAdmin}, http.StatusOK},
		{"staff on admin route", RoleStaff, []string{RoleAdmin}, http.StatusForbidden},
		{"staff on shared route", RoleStaff, []string{RoleAdmin, RoleStaff}, http.StatusOK},
		{"unknown role", "guest", []string{RoleAdmin, RoleStaff}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := mgr.GenerateAccessToken("u-1", "Ana", tt.role)
			require.NoError(t, err)
			w := doGet(protectedEngine(mgr, tt.allowed...), "Bearer "+tok)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRoleAuth_WithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/x", RoleAuth(RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", requestIDMaxLen+1))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 17))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"code":10005`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ── CORS ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://desk.local/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://desk.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://desk.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campdesk/config"
	"campdesk/internal/api/handler"
	"campdesk/internal/service"
	"campdesk/pkg/jwt"
	"campdesk/pkg/metrics"
)

func newTestEngine(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "router-test-secret-0123", AccessTokenTTL: time.Minute},
	}
	mgr := jwt.NewManager(&cfg.Auth)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncVerified("manual")

	// role checks reject before any service is reached
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, mgr, nil, nil, reg, zap.NewNop()), mgr
}

func TestSetup_Health(t *testing.T) {
	r, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSetup_Metrics(t *testing.T) {
	r, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `campdesk_verifications_total{method="manual"} 1`)
}

func TestSetup_RequiresToken(t *testing.T) {
	r, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accommodation/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetup_AdminOnlyRoutes(t *testing.T) {
	r, mgr := newTestEngine(t)
	tok, err := mgr.GenerateAccessToken("staff-1", "Sam", "staff")
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/allocations/auto"},
		{http.MethodPost, "/api/v1/allocations"},
		{http.MethodDelete, "/api/v1/allocations/11111111-1111-1111-1111-111111111111"},
		{http.MethodPost, "/api/v1/allocations/empty"},
		{http.MethodPost, "/api/v1/rooms"},
		{http.MethodPut, "/api/v1/rooms/r1"},
		{http.MethodDelete, "/api/v1/rooms/r1"},
		{http.MethodGet, "/api/v1/accommodation/export"},
		{http.MethodGet, "/api/v1/registrations/r1/logs"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

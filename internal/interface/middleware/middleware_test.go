package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func newTokens() *helpers.JWTManager {
	return helpers.NewJWTManager(helpers.TokenConfig{Secret: "s", Issuer: "test", SessionTTL: time.Hour})
}

func guarded(t *testing.T, tokens *helpers.JWTManager, required entity.Role) *gin.Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/admin/me", Authenticate(tokens, logger), RequireRole(required), func(c *gin.Context) {
		c.String(http.StatusOK, ClaimsFrom(c).UserID)
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_MissingOrBadToken(t *testing.T) {
	r := guarded(t, newTokens(), entity.RoleAdmin)

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			w := do(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "unauthenticated")
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := helpers.NewJWTManager(helpers.TokenConfig{Secret: "s", Issuer: "test", SessionTTL: time.Hour},
		helpers.WithClock(func() time.Time { return past }))
	tok, _, err := issuer.IssueSession("u-1", entity.RoleSuperAdmin)
	require.NoError(t, err)

	w := do(guarded(t, newTokens(), entity.RoleAdmin), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_ForbiddenBelowThreshold(t *testing.T) {
	tokens := newTokens()
	tok, _, err := tokens.IssueSession("u-1", entity.RoleModerator)
	require.NoError(t, err)

	w := do(guarded(t, tokens, entity.RoleAdmin), "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_AllowsAtOrAbove(t *testing.T) {
	tokens := newTokens()
	for _, role := range []entity.Role{entity.RoleAdmin, entity.RoleSuperAdmin} {
		tok, _, err := tokens.IssueSession("u-1", role)
		require.NoError(t, err)

		w := do(guarded(t, tokens, entity.RoleAdmin), "bearer "+tok)
		assert.Equal(t, http.StatusOK, w.Code, role.String())
		assert.Equal(t, "u-1", w.Body.String())
	}
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(entity.RoleBasic), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID_KeepsValidIncoming(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	const incoming = "3f1b6a8e-5d2c-4c1e-9a7b-2f0e8d6c4b1a"
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "bad id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "bad id", w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.2", w.Body.String())
}

func TestAccessLog_OmitsQuery(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RealIP(), AccessLog(logger))
	r.GET("/confirm", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/confirm?token=secret-token", nil))

	require.Len(t, hook.AllEntries(), 1)
	line, err := hook.LastEntry().String()
	require.NoError(t, err)
	assert.NotContains(t, line, "secret-token")
	assert.Equal(t, 200, hook.LastEntry().Data["status"])
}

func TestMetrics_CountsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/ping", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/ping", "204"))

	assert.Equal(t, before+1, after)
}

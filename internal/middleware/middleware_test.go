package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollments-service/internal/service"
)

type observedRequest struct {
	method string
	path   string
	status int
}

type observerStub struct {
	seen []observedRequest
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.seen = append(o.seen, observedRequest{method: method, path: path, status: status})
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &observerStub{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/enrollments/:enrollmentId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/enrollments/a", "/enrollments/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, obs.seen, 3)
	assert.Equal(t, observedRequest{method: "GET", path: "/enrollments/:enrollmentId", status: http.StatusNoContent}, obs.seen[0])
	assert.Equal(t, "/enrollments/:enrollmentId", obs.seen[1].path)
	assert.Equal(t, "unmatched", obs.seen[2].path)
	assert.Equal(t, http.StatusNotFound, obs.seen[2].status)
}

func jwtRouter(tokens *service.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/enrollments", JWT(tokens), func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		c.JSON(http.StatusCreated, gin.H{"subject": claims.Subject})
	})
	return r
}

func TestJWTAcceptsValidToken(t *testing.T) {
	tokens := service.NewTokenService("secret", "")
	token, err := tokens.IssueToken("clerk-1", "registrar", time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/enrollments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	jwtRouter(tokens).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "clerk-1")
}

func TestJWTRejects(t *testing.T) {
	tokens := service.NewTokenService("secret", "")
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/enrollments", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			jwtRouter(tokens).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := service.NewTokenService("secret", "")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/enrollments/:enrollmentId", JWT(tokens), RequireRoles("registrar", "admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		role   string
		status int
	}{
		{"registrar", http.StatusOK},
		{"admin", http.StatusOK},
		{"student", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		token, err := tokens.IssueToken("user-1", tc.role, time.Minute)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/enrollments/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.role)
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", RequireRoles(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

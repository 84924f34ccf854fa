package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mabletask/companion/models"
	"mabletask/companion/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, serviceKey string) (*gin.Engine, *utils.JWTIssuer) {
	t.Helper()
	issuer, err := utils.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthRequired(issuer, serviceKey), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "email": c.GetString(UserEmailKey)})
	})
	return r, issuer
}

func TestAuthRequired(t *testing.T) {
	r, issuer := newAuthRouter(t, "service-key")
	token, err := issuer.Generate(&models.User{ID: 9, Email: "nine@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(*http.Request)
		want    int
		body    string
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, "No token provided"},
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK, `"user_id":9`},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "jwt_token", Value: token}) }, http.StatusOK, "nine@example.com"},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") }, http.StatusUnauthorized, "Invalid or expired"},
		{"service key", func(req *http.Request) { req.Header.Set("X-API-KEY", "service-key") }, http.StatusOK, `"user_id":0`},
		{"wrong service key", func(req *http.Request) { req.Header.Set("X-API-KEY", "nope") }, http.StatusUnauthorized, "No token provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthRequired_EmptyServiceKeyDisablesBypass(t *testing.T) {
	r, _ := newAuthRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-API-KEY", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRateLimiter(t *testing.T) {
	l := NewUserRateLimiter(1, 2)
	r := gin.New()
	r.GET("/chat", func(c *gin.Context) {
		if c.GetHeader("X-User") == "b" {
			c.Set(UserIDKey, 2)
		} else {
			c.Set(UserIDKey, 1)
		}
	}, l.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do("a"))
	assert.Equal(t, http.StatusNoContent, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusNoContent, do("b"), "buckets are per user")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("http://shop.test"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://shop.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"mabletask/companion/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for AuthRequired: the caller id comes from X-Test-User.
func asUser(c *gin.Context) {
	id, _ := strconv.Atoi(c.GetHeader("X-Test-User"))
	c.Set(middleware.UserIDKey, id)
	c.Set(middleware.UserEmailKey, "user"+c.GetHeader("X-Test-User")+"@example.com")
	c.Next()
}

func doJSON(t *testing.T, r http.Handler, method, path string, user int, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", strconv.Itoa(user))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

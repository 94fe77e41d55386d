package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/jwt"
)

func newRouter(v *jwt.Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", NewAuthMiddleware(v).RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c)+"/"+GetUsername(c))
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	v := jwt.NewVerifier("secret", "")
	r := newRouter(v)
	token, err := v.Issue("u1", "Alice", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		status int
		body   string
	}{
		{"missing", "/me", "", http.StatusUnauthorized, ""},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"header", "/me", "Bearer " + token, http.StatusOK, "u1/Alice"},
		{"query", "/me?token=" + token, "", http.StatusOK, "u1/Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireAuthRejectsOtherSecret(t *testing.T) {
	r := newRouter(jwt.NewVerifier("secret", ""))
	token, err := jwt.NewVerifier("other", "").Issue("u1", "Alice", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthHeaderKey, "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/jwt"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/response"
)

const (
	UserIDKey     = log.FieldUserID
	UsernameKey   = log.FieldUsername
	AuthHeaderKey = "Authorization"
	TokenQueryKey = "token"
)

// AuthMiddleware validates HS256 bearer tokens locally.
type AuthMiddleware struct {
	verifier *jwt.Verifier
}

func NewAuthMiddleware(verifier *jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth returns a Gin middleware that validates the bearer token
// carried in the Authorization header or, for browser websockets, the token
// query parameter.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AuthHeaderKey)
		if token == "" {
			token = c.Query(TokenQueryKey)
		}

		claims, err := m.verifier.ValidateToken(token)
		if err != nil {
			l := log.Ctx(c.Request.Context())
			l.Warn().Err(err).Msg("authentication failed")
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(UserIDKey, claims.UserSubject())
		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUsername extracts username from Gin context.
func GetUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

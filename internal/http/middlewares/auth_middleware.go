package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/regportal/internal/actorctx"
	"github.com/geocoder89/regportal/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "login_required",
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
			"details":   gin.H{"redirectTo": "/login"},
		},
	})
}

// RequireAuth verifies the bearer token and puts both the user id and the raw
// token on the request context so gateway calls can forward it.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			unauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			unauthorized(c, "Invalid or expired access token")
			return
		}

		userID := claims.UserID()
		c.Set(ctxUserIDKey, userID)
		c.Set(ctxEmailKey, claims.Email)

		ctx := actorctx.WithUserID(c.Request.Context(), userID)
		ctx = actorctx.WithAccessToken(ctx, raw)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ForwardToken passes an optional bearer token through without verifying it.
// Used on public routes that still accept a session, such as logout.
func ForwardToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && strings.TrimSpace(raw) != "" {
			c.Request = c.Request.WithContext(actorctx.WithAccessToken(c.Request.Context(), strings.TrimSpace(raw)))
		}
		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func EmailFromContext(c *gin.Context) string {
	return c.GetString(ctxEmailKey)
}

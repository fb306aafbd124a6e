package middleware

import (
	"net/http"
	"strings"

	"fedlearn.dev/dashboard/internal/entity"
	sessionService "fedlearn.dev/dashboard/internal/modules/session/service"
	"fedlearn.dev/dashboard/pkg/response"
	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "fedlearn_session"

type AuthMiddleware struct {
	sessions sessionService.SessionService
}

func NewAuthMiddleware(sessions sessionService.SessionService) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

func tokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	// WebSocket clients cannot set headers
	return c.Query("token")
}

// authenticate resolves and refreshes the caller's session. It reports false
// when no live session exists.
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	token := tokenFrom(c)
	if token == "" {
		return false
	}
	id, err := m.sessions.ParseToken(token)
	if err != nil {
		return false
	}
	sess, err := m.sessions.Touch(c.Request.Context(), id)
	if err != nil {
		return false
	}

	c.Set(response.ContextSessionID, sess.ID)
	c.Set(response.ContextUser, sess.User)
	return true
}

// Optional loads the session when present and never rejects.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or missing, please log in"})
			return
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := response.GetUser(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}
		if !user.Role.AtLeast(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": required.Name() + " access required"})
			return
		}
		c.Next()
	}
}

// PageGuard gates page routes: anonymous visitors go to /login and users
// below the required role go to /.
func (m *AuthMiddleware) PageGuard(required entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		user, _ := response.GetUser(c)
		if !user.Role.AtLeast(required) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID = "auth_user_id"
	ContextKeyEmail  = "auth_email"
	ContextKeyName   = "auth_name"
)

// ProfileDirectory is the slice of the profiles repository the
// middleware needs for role checks.
type ProfileDirectory interface {
	HasRole(userID string, role entities.Role) (bool, error)
}

// Middleware resolves the request's user from the browser session and
// exposes it through the Gin context.
type Middleware struct {
	sessionManager *SessionManager
	profiles       ProfileDirectory
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(sessionManager *SessionManager, profiles ProfileDirectory) *Middleware {
	return &Middleware{
		sessionManager: sessionManager,
		profiles:       profiles,
	}
}

// Handler injects the session's user into the request context. Requests
// without a session pass through anonymously; access control happens in
// RequireAuth/RequireAdmin on the routes that need it.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := m.sessionManager.GetUserID(c.Request); userID != "" {
			c.Set(ContextKeyUserID, userID)
			c.Set(ContextKeyEmail, m.sessionManager.GetEmail(c.Request))
			c.Set(ContextKeyName, m.sessionManager.GetName(c.Request))
		}
		c.Next()
	}
}

// RequireAuth rejects requests without an authenticated session.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose user lacks the admin role row.
// Role lookup errors degrade to "not admin" rather than surfacing.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		isAdmin, err := m.profiles.HasRole(userID, entities.RoleAdmin)
		if err != nil || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
			})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from the Gin context,
// or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	if v, exists := c.Get(ContextKeyUserID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetEmail returns the authenticated user's email from the Gin context.
func GetEmail(c *gin.Context) string {
	if v, exists := c.Get(ContextKeyEmail); exists {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}

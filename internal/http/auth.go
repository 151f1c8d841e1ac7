package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/ebookshelf/internal/auth"
	"github.com/mrlokans/ebookshelf/internal/session"
)

// AuthController handles authentication endpoints. It delegates all
// credential decisions to the session store (and through it, the
// gateway); its own job is translating HTTP to store calls and keeping
// the browser cookie session in sync. Identity questions are always
// answered from the request's own cookie session: one browser's state
// must never be visible to another.
type AuthController struct {
	sessions       *session.Store
	sessionManager *auth.SessionManager
	rateLimiter    *auth.RateLimiter
}

func NewAuthController(sessions *session.Store, sessionManager *auth.SessionManager, rateLimiter *auth.RateLimiter) *AuthController {
	return &AuthController{
		sessions:       sessions,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// Login authenticates against the gateway. The gateway's error message
// is surfaced verbatim on rejection.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	clientIP := c.ClientIP()
	if ac.rateLimiter != nil {
		allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many login attempts, please try again later",
			})
			return
		}
	}

	// The returned view belongs to this request's credentials; shared
	// store state is never consulted, so a concurrent login elsewhere
	// cannot leak into this response
	user, capabilities, err := ac.sessions.Login(req.Email, req.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, req.Email)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	}

	if err := ac.sessionManager.CreateSession(c.Request, user.ID, user.Email, user.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"capabilities": capabilities,
	})
}

// Register creates a new account, passing name as profile metadata.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and name are required"})
		return
	}

	user, capabilities, err := ac.sessions.Register(req.Email, req.Password, req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user.ID, user.Email, user.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         user,
		"capabilities": capabilities,
	})
}

// Logout signs out at the gateway and destroys this browser's cookie
// session. Other browsers' sessions are untouched; their identity lives
// in their own cookies.
func (ac *AuthController) Logout(c *gin.Context) {
	ac.sessions.Logout()
	_ = ac.sessionManager.DestroySession(c.Request)
	c.Status(http.StatusNoContent)
}

// Session reports the calling browser's auth state, resolved from its
// cookie session. user is null for requests without a valid session;
// capabilities are re-derived per request so role changes take effect
// without re-login.
func (ac *AuthController) Session(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusOK, gin.H{
			"user":         nil,
			"capabilities": session.Capabilities{},
			"is_loading":   false,
		})
		return
	}

	user, capabilities := ac.sessions.ResolveUser(userID, auth.GetEmail(c))
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"capabilities": capabilities,
		"is_loading":   false,
	})
}

package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/ebookshelf/internal/auth"
	"github.com/mrlokans/ebookshelf/internal/catalog"
	"github.com/mrlokans/ebookshelf/internal/database"
	"github.com/mrlokans/ebookshelf/internal/session"
)

// RouterConfig carries all router dependencies, improving testability
// and reducing parameter count.
type RouterConfig struct {
	Database       *database.Database
	SessionStore   *session.Store
	CatalogStore   *catalog.Store
	UserDirectory  UserDirectory
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter
	Auditor        DownloadAuditor
	CSRFSecret     []byte
	SecureCookies  bool
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.SessionStore, cfg.SessionManager, cfg.RateLimiter)
	booksController := NewBooksController(cfg.CatalogStore, cfg.Auditor)
	adminController := NewAdminController(cfg.CatalogStore, cfg.UserDirectory, cfg.SessionManager)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Auth endpoints
	router.POST("/api/auth/register", authController.Register)
	router.POST("/api/auth/login", authController.Login)
	router.POST("/api/auth/logout", authController.Logout)
	router.GET("/api/auth/session", authController.Session)

	// Catalog endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/books/:id/content", booksController.GetBookContent)

	authed := router.Group("/", cfg.AuthMiddleware.RequireAuth())
	authed.POST("/api/books", booksController.ContributeBook)
	authed.POST("/api/books/:id/rating", booksController.RateBook)
	authed.POST("/api/books/:id/share", booksController.ShareBook)
	authed.GET("/api/books/:id/download", booksController.DownloadBook)

	// Admin endpoints
	admin := router.Group("/api/admin", cfg.AuthMiddleware.RequireAdmin())
	admin.GET("/stats", adminController.GetStats)
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/shares", adminController.ListShares)
	admin.POST("/books", adminController.AddBook)
	admin.DELETE("/books/:id", adminController.DeleteBook)

	return router
}

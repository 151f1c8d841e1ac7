package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/ebookshelf/internal/catalog"
	"github.com/mrlokans/ebookshelf/internal/entities"
)

// UserDirectory is the slice of the profiles repository the admin
// panel needs.
type UserDirectory interface {
	ListProfiles() ([]entities.Profile, error)
	CountProfiles() (int64, error)
	HasRole(userID string, role entities.Role) (bool, error)
}

// SessionCounter reports how many browser sessions are currently live.
type SessionCounter interface {
	ActiveSessionCount() (int64, error)
}

// AdminController serves the admin dashboard API. All routes are
// registered behind the admin-role middleware.
type AdminController struct {
	store    *catalog.Store
	users    UserDirectory
	sessions SessionCounter
}

func NewAdminController(store *catalog.Store, users UserDirectory, sessions SessionCounter) *AdminController {
	return &AdminController{
		store:    store,
		users:    users,
		sessions: sessions,
	}
}

// GetStats returns the dashboard counters.
func (controller *AdminController) GetStats(c *gin.Context) {
	registered, err := controller.users.CountProfiles()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var activeSessions int64
	if controller.sessions != nil {
		// Best effort; the dashboard shows 0 if the count fails
		activeSessions, _ = controller.sessions.ActiveSessionCount()
	}

	shares, err := controller.store.ListShares()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"registered_users": registered,
		"active_sessions":  activeSessions,
		"total_shares":     len(shares),
		"total_books":      len(controller.store.Books()),
	})
}

type adminUser struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	IsAdmin       bool      `json:"is_admin"`
	Contributions int       `json:"contributions"`
}

// ListUsers returns all registered users with their role and
// contribution count.
func (controller *AdminController) ListUsers(c *gin.Context) {
	profiles, err := controller.users.ListProfiles()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	users := make([]adminUser, 0, len(profiles))
	for _, profile := range profiles {
		isAdmin, _ := controller.users.HasRole(profile.UserID, entities.RoleAdmin)
		users = append(users, adminUser{
			UserID:        profile.UserID,
			Name:          profile.Name,
			Email:         profile.Email,
			CreatedAt:     profile.CreatedAt,
			IsAdmin:       isAdmin,
			Contributions: controller.store.ContributionCount(profile.UserID),
		})
	}

	c.IndentedJSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// AddBook adds a catalog book without contributor attribution. Catalog
// content added here never counts toward anyone's download eligibility.
func (controller *AdminController) AddBook(c *gin.Context) {
	var req contributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, author and content are required"})
		return
	}

	book, err := controller.store.AddBook(catalog.NewBook{
		Title:       req.Title,
		Author:      req.Author,
		CoverImage:  req.CoverImage,
		Content:     req.Content,
		Description: req.Description,
	}, "")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"book": book})
}

// DeleteBook removes a book from the catalog. The store refreshes its
// mirror before this returns.
func (controller *AdminController) DeleteBook(c *gin.Context) {
	err := controller.store.DeleteBook(c.Param("id"))
	if err == catalog.ErrBookNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListShares returns the share activity log, newest first.
func (controller *AdminController) ListShares(c *gin.Context) {
	activities, err := controller.store.ListShares()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"shares": activities, "count": len(activities)})
}

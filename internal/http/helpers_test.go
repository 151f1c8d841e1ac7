package http

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/ebookshelf/internal/auth"
	"github.com/mrlokans/ebookshelf/internal/catalog"
	"github.com/mrlokans/ebookshelf/internal/database/books"
	"github.com/mrlokans/ebookshelf/internal/database/profiles"
	"github.com/mrlokans/ebookshelf/internal/database/ratings"
	"github.com/mrlokans/ebookshelf/internal/database/shares"
	"github.com/mrlokans/ebookshelf/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv bundles the real stores the controllers are wired to in
// production, backed by a throwaway SQLite file.
type testEnv struct {
	db       *gorm.DB
	catalog  *catalog.Store
	profiles *profiles.Repository
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	dbPath := "./test_http_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Profile{},
		&entities.UserRole{},
		&entities.Book{},
		&entities.Rating{},
		&entities.ShareActivity{},
	)
	require.NoError(t, err)

	store := catalog.NewStore(
		books.NewRepository(db),
		ratings.NewRepository(db),
		shares.NewRepository(db),
		"https://covers.example.com/default.jpg",
	)
	require.NoError(t, store.Refresh())

	env := &testEnv{
		db:       db,
		catalog:  store,
		profiles: profiles.NewRepository(db),
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return env, cleanup
}

// asUser injects an authenticated user into the Gin context the way the
// session middleware does in production.
func asUser(userID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(auth.ContextKeyUserID, userID)
			c.Set(auth.ContextKeyEmail, email)
		}
		c.Next()
	}
}

func (env *testEnv) addBook(t *testing.T, title, contributorID string) catalog.Book {
	t.Helper()
	book, err := env.catalog.AddBook(catalog.NewBook{
		Title:   title,
		Author:  "Test Author",
		Content: "Some content.",
	}, contributorID)
	require.NoError(t, err)
	return book
}

package shares

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_shares_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.ShareActivity{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func shareAt(id string, when time.Time) *entities.ShareActivity {
	return &entities.ShareActivity{
		ID:        id,
		BookID:    "book-1",
		BookTitle: "The Great Gatsby",
		UserID:    "user-1",
		UserEmail: "reader@example.com",
		Platform:  "twitter",
		SharedAt:  when,
	}
}

func TestRepository_RecordAndListShares(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordShare(shareAt("s1", time.Now().Add(-time.Hour))))
	require.NoError(t, repo.RecordShare(shareAt("s2", time.Now())))

	shares, err := repo.ListShares()
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, "s2", shares[0].ID, "newest share should come first")
	assert.Equal(t, "The Great Gatsby", shares[0].BookTitle)
}

func TestRepository_CountShares(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	count, err := repo.CountShares()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.RecordShare(shareAt("s1", time.Now())))

	count, err = repo.CountShares()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_DeleteOldShares(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordShare(shareAt("old", time.Now().Add(-100*24*time.Hour))))
	require.NoError(t, repo.RecordShare(shareAt("recent", time.Now().Add(-time.Hour))))

	deleted, err := repo.DeleteOldShares(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	shares, err := repo.ListShares()
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "recent", shares[0].ID)
}

func TestRepository_DeleteOldShares_NothingToDelete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.RecordShare(shareAt("recent", time.Now())))

	deleted, err := repo.DeleteOldShares(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

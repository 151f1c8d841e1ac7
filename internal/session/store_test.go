package session

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/ebookshelf/internal/database/profiles"
	"github.com/mrlokans/ebookshelf/internal/entities"
	"github.com/mrlokans/ebookshelf/internal/gateway"
)

func setupTestStore(t *testing.T) (*Store, *gateway.Gateway, *profiles.Repository, func()) {
	dbPath := "./test_session_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Credential{}, &entities.Profile{}, &entities.UserRole{})
	require.NoError(t, err)

	gw := gateway.New(db, bcrypt.MinCost)
	profilesRepo := profiles.NewRepository(db)
	store := NewStore(gw, profilesRepo)

	cleanup := func() {
		store.Close()
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return store, gw, profilesRepo, cleanup
}

func mustRegister(t *testing.T, store *Store, email, password, name string) {
	t.Helper()
	_, _, err := store.Register(email, password, name)
	require.NoError(t, err)
}

func mustLogin(t *testing.T, store *Store, email, password string) {
	t.Helper()
	_, _, err := store.Login(email, password)
	require.NoError(t, err)
}

func TestStore_StartsAnonymous(t *testing.T) {
	store, _, _, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Nil(t, store.CurrentUser())
	assert.Equal(t, Capabilities{}, store.Capabilities())
	assert.False(t, store.IsAdmin())
	assert.False(t, store.IsLoading(), "initial session check resolves loading")
}

func TestStore_RegisterPopulatesUser(t *testing.T) {
	store, _, _, cleanup := setupTestStore(t)
	defer cleanup()

	returned, returnedCaps, err := store.Register("reader@example.com", "correct-horse", "Test Reader")
	require.NoError(t, err)
	require.NotNil(t, returned)
	assert.Equal(t, "Test Reader", returned.Name)
	assert.True(t, returnedCaps.CanRead)

	user := store.CurrentUser()
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "Test Reader", user.Name, "name comes from the profile row")
	assert.Equal(t, returned.ID, user.ID, "returned view matches the event-driven state")

	caps := store.Capabilities()
	assert.True(t, caps.CanRead)
	assert.True(t, caps.CanWrite)
	assert.False(t, caps.Admin)
}

func TestStore_LoginAfterLogout(t *testing.T) {
	store, _, _, cleanup := setupTestStore(t)
	defer cleanup()

	mustRegister(t, store, "reader@example.com", "correct-horse", "Reader")
	store.Logout()

	assert.Nil(t, store.CurrentUser())
	assert.Equal(t, Capabilities{}, store.Capabilities())

	mustLogin(t, store, "reader@example.com", "correct-horse")
	user := store.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "reader@example.com", user.Email)
}

func TestStore_LoginErrorLeavesStateUntouched(t *testing.T) {
	store, _, _, cleanup := setupTestStore(t)
	defer cleanup()

	user, _, err := store.Login("ghost@example.com", "whatever-pass")
	assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)
	assert.Nil(t, user)
	assert.Nil(t, store.CurrentUser())
}

func TestStore_AdminRoleGrantsAdminCapability(t *testing.T) {
	store, _, profilesRepo, cleanup := setupTestStore(t)
	defer cleanup()

	mustRegister(t, store, "admin@example.com", "correct-horse", "Admin")
	user := store.CurrentUser()
	require.NotNil(t, user)

	require.NoError(t, profilesRepo.GrantRole(user.ID, entities.RoleAdmin))

	// Role rows are read at resolution time; log in again to pick it up
	store.Logout()
	mustLogin(t, store, "admin@example.com", "correct-horse")

	assert.True(t, store.IsAdmin())
	assert.True(t, store.Capabilities().Admin)
}

func TestStore_ResolvesExistingSessionAtConstruction(t *testing.T) {
	store, gw, profilesRepo, cleanup := setupTestStore(t)
	defer cleanup()

	mustRegister(t, store, "reader@example.com", "correct-horse", "Reader")
	store.Close()

	// A store built while a session already exists adopts it
	second := NewStore(gw, profilesRepo)
	defer second.Close()

	user := second.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.False(t, second.IsLoading())
}

func TestStore_CurrentUserReturnsCopy(t *testing.T) {
	store, _, _, cleanup := setupTestStore(t)
	defer cleanup()

	mustRegister(t, store, "reader@example.com", "correct-horse", "Reader")

	first := store.CurrentUser()
	first.Email = "mutated@example.com"

	second := store.CurrentUser()
	assert.Equal(t, "reader@example.com", second.Email)
}

type failingProfiles struct{}

func (failingProfiles) GetProfileByUserID(string) (*entities.Profile, error) {
	return nil, assert.AnError
}

func (failingProfiles) HasRole(string, entities.Role) (bool, error) {
	return false, assert.AnError
}

func TestStore_ProfileLookupFailureDoesNotBlockLogin(t *testing.T) {
	dbPath := "./test_session_failopen_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}()

	require.NoError(t, db.AutoMigrate(&entities.Credential{}, &entities.Profile{}))

	gw := gateway.New(db, bcrypt.MinCost)
	store := NewStore(gw, failingProfiles{})
	defer store.Close()

	mustRegister(t, store, "reader@example.com", "correct-horse", "Reader")

	user := store.CurrentUser()
	require.NotNil(t, user, "broken profile lookups must not block login")
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Empty(t, user.Name)
	assert.False(t, store.IsAdmin(), "role lookup failure degrades to no privilege")
	assert.True(t, store.Capabilities().CanRead)
}

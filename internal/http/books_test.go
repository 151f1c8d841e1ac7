package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct {
	records []any
}

func (r *recordingAuditor) SaveJSON(data any) (string, error) {
	r.records = append(r.records, data)
	return "audit.json", nil
}

func newBooksRouter(env *testEnv, auditor DownloadAuditor, userID, email string) *gin.Engine {
	controller := NewBooksController(env.catalog, auditor)

	router := gin.New()
	router.Use(asUser(userID, email))
	router.GET("/api/books", controller.ListBooks)
	router.GET("/api/books/:id", controller.GetBook)
	router.GET("/api/books/:id/content", controller.GetBookContent)
	router.POST("/api/books", controller.ContributeBook)
	router.POST("/api/books/:id/rating", controller.RateBook)
	router.POST("/api/books/:id/share", controller.ShareBook)
	router.GET("/api/books/:id/download", controller.DownloadBook)
	return router
}

func TestListBooks(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	env.addBook(t, "First Book", "")
	env.addBook(t, "Second Book", "")

	router := newBooksRouter(env, nil, "", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Books []bookSummary `json:"books"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
	assert.Len(t, response.Books, 2)
}

func TestListBooks_IncludesDerivedRatings(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Rated Book", "")
	require.NoError(t, env.catalog.RateBook(book.ID, "user-1", 5))
	require.NoError(t, env.catalog.RateBook(book.ID, "user-2", 4))

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books/"+book.ID, nil))

	require.Equal(t, http.StatusOK, w.Code)

	var summary bookSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 4.5, summary.AverageRating, 1e-9)
	assert.Equal(t, 5, summary.UserRating)
}

func TestGetBook_NotFound(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := newBooksRouter(env, nil, "", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBookContent(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Readable Book", "")

	router := newBooksRouter(env, nil, "", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books/"+book.ID+"/content", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Some content.")
}

func TestRateBook(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Rated Book", "")

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/books/"+book.ID+"/rating", strings.NewReader(`{"rating": 4}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		AverageRating float64 `json:"average_rating"`
		UserRating    int     `json:"user_rating"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 4.0, response.AverageRating)
	assert.Equal(t, 4, response.UserRating)
}

func TestRateBook_Validation(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Rated Book", "")
	router := newBooksRouter(env, nil, "user-1", "reader@example.com")

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"missing rating", "/api/books/" + book.ID + "/rating", `{}`, http.StatusBadRequest},
		{"rating too high", "/api/books/" + book.ID + "/rating", `{"rating": 6}`, http.StatusBadRequest},
		{"rating too low", "/api/books/" + book.ID + "/rating", `{"rating": -1}`, http.StatusBadRequest},
		{"unknown book", "/api/books/missing/rating", `{"rating": 3}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestShareBook(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Shared Book", "")

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/books/"+book.ID+"/share", strings.NewReader(`{"platform": "twitter"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)

	activities, err := env.catalog.ListShares()
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Shared Book", activities[0].BookTitle)
	assert.Equal(t, "reader@example.com", activities[0].UserEmail)
}

func TestShareBook_UnknownBook(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/books/missing/share", strings.NewReader(`{"platform": "twitter"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContributeBook(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	body := `{"title": "My Book", "author": "Me", "content": "Words."}`
	req := httptest.NewRequest("POST", "/api/books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Book        map[string]any `json:"book"`
		CanDownload bool           `json:"can_download"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.CanDownload, "contributing unlocks downloads")
	assert.Equal(t, "user-1", response.Book["contributor_id"])
}

func TestContributeBook_MissingFields(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/books", strings.NewReader(`{"title": "Only Title"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadBook_GatedUntilContribution(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Locked Book", "")

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books/"+book.ID+"/download", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "contribute a book to unlock downloads")
}

func TestDownloadBook_AfterContribution(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Locked Book", "")
	env.addBook(t, "My Contribution", "user-1")

	auditor := &recordingAuditor{}
	router := newBooksRouter(env, auditor, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books/"+book.ID+"/download", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Locked Book")
	assert.Contains(t, w.Body.String(), "Some content.")
	assert.Len(t, auditor.records, 1, "downloads are audited")
}

func TestDownloadBook_RelockedAfterContributionDeleted(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.addBook(t, "Locked Book", "")
	contribution := env.addBook(t, "My Contribution", "user-1")
	require.NoError(t, env.catalog.DeleteBook(contribution.ID))

	router := newBooksRouter(env, nil, "user-1", "reader@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/books/"+book.ID+"/download", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/ebookshelf/internal/auth"
	"github.com/mrlokans/ebookshelf/internal/catalog"
)

// DownloadAuditor records gated downloads. Failures to audit never
// block the download itself.
type DownloadAuditor interface {
	SaveJSON(data any) (string, error)
}

type BooksController struct {
	store   *catalog.Store
	auditor DownloadAuditor
}

func NewBooksController(store *catalog.Store, auditor DownloadAuditor) *BooksController {
	return &BooksController{
		store:   store,
		auditor: auditor,
	}
}

// bookSummary is the list payload: book metadata plus derived rating
// values, without the full text.
type bookSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	CoverImage    string    `json:"cover_image"`
	Description   string    `json:"description"`
	ContributorID string    `json:"contributor_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	AverageRating float64   `json:"average_rating"`
	UserRating    int       `json:"user_rating"`
}

func (controller *BooksController) summarize(book catalog.Book, userID string) bookSummary {
	return bookSummary{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		CoverImage:    book.CoverImage,
		Description:   book.Description,
		ContributorID: book.ContributorID,
		CreatedAt:     book.CreatedAt,
		AverageRating: controller.store.AverageRating(book.ID),
		UserRating:    controller.store.UserRating(book.ID, userID),
	}
}

// ListBooks returns the catalog, newest first, with derived ratings.
func (controller *BooksController) ListBooks(c *gin.Context) {
	userID := auth.GetUserID(c)

	books := controller.store.Books()
	summaries := make([]bookSummary, 0, len(books))
	for _, book := range books {
		summaries = append(summaries, controller.summarize(book, userID))
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": summaries, "count": len(summaries)})
}

// GetBook returns a single book's metadata and derived ratings.
func (controller *BooksController) GetBook(c *gin.Context) {
	book, ok := controller.store.BookByID(c.Param("id"))
	if !ok {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	c.IndentedJSON(http.StatusOK, controller.summarize(book, auth.GetUserID(c)))
}

// GetBookContent returns the book's text for the reading view.
func (controller *BooksController) GetBookContent(c *gin.Context) {
	book, ok := controller.store.BookByID(c.Param("id"))
	if !ok {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"id":      book.ID,
		"title":   book.Title,
		"author":  book.Author,
		"content": book.Content,
	})
}

type rateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// RateBook stores the authenticated user's score for a book. Rating the
// same book again overwrites the previous score.
func (controller *BooksController) RateBook(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating is required"})
		return
	}

	bookID := c.Param("id")
	userID := auth.GetUserID(c)

	err := controller.store.RateBook(bookID, userID, req.Rating)
	switch err {
	case nil:
	case catalog.ErrRatingOutOfRange:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case catalog.ErrBookNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"average_rating": controller.store.AverageRating(bookID),
		"user_rating":    controller.store.UserRating(bookID, userID),
	})
}

type shareRequest struct {
	Platform string `json:"platform" binding:"required"`
}

// ShareBook records a share activity for the admin activity log.
func (controller *BooksController) ShareBook(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required"})
		return
	}

	err := controller.store.RecordShare(c.Param("id"), auth.GetUserID(c), auth.GetEmail(c), req.Platform)
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

type contributeRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	CoverImage  string `json:"cover_image"`
	Content     string `json:"content" binding:"required"`
	Description string `json:"description"`
}

// ContributeBook adds a user-submitted book to the catalog, attributed
// to the authenticated user. Contributing unlocks downloads.
func (controller *BooksController) ContributeBook(c *gin.Context) {
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
	}, auth.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"book":         book,
		"can_download": controller.store.CanDownload(auth.GetUserID(c)),
	})
}

type downloadRecord struct {
	BookID    string    `json:"book_id"`
	BookTitle string    `json:"book_title"`
	UserID    string    `json:"user_id"`
	Time      time.Time `json:"time"`
}

// DownloadBook serves the book as plain text. Access requires having
// contributed at least one book.
func (controller *BooksController) DownloadBook(c *gin.Context) {
	userID := auth.GetUserID(c)
	if !controller.store.CanDownload(userID) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "contribute a book to unlock downloads",
		})
		return
	}

	book, ok := controller.store.BookByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	if controller.auditor != nil {
		_, _ = controller.auditor.SaveJSON(downloadRecord{
			BookID:    book.ID,
			BookTitle: book.Title,
			UserID:    userID,
			Time:      time.Now(),
		})
	}

	body := fmt.Sprintf("%s\nby %s\n\n%s\n", book.Title, book.Author, book.Content)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", book.Title+".txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

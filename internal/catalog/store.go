// Package catalog holds the authoritative in-memory mirror of the
// remote book and rating tables plus the derived query helpers built
// on top of it.
//
// The mirror is never the source of truth: every mutator writes
// through the gateway repositories and then re-fetches the affected
// collection in full, so the local copy is always a refresh of
// authoritative remote state. Derivation helpers are pure reads over
// the mirror and never touch the database.
package catalog

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrAuthorRequired   = errors.New("author is required")
	ErrContentRequired  = errors.New("content is required")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrBookNotFound     = errors.New("book not found")
)

// Book is the view-model the store exposes. CoverImage is always
// populated; books stored without one carry the default cover URL.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	CoverImage    string    `json:"cover_image"`
	Content       string    `json:"content"`
	Description   string    `json:"description"`
	ContributorID string    `json:"contributor_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Rating is one user's score for one book.
type Rating struct {
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

// NewBook carries the caller-supplied fields for a book submission.
type NewBook struct {
	Title       string
	Author      string
	CoverImage  string
	Content     string
	Description string
}

// BookStore is the slice of the books repository the store needs.
type BookStore interface {
	ListBooks() ([]entities.Book, error)
	InsertBook(book *entities.Book) error
	DeleteBook(id string) error
}

// RatingStore is the slice of the ratings repository the store needs.
type RatingStore interface {
	ListRatings() ([]entities.Rating, error)
	UpsertRating(bookID, userID string, rating int) error
}

// ShareStore is the slice of the shares repository the store needs.
type ShareStore interface {
	RecordShare(activity *entities.ShareActivity) error
	ListShares() ([]entities.ShareActivity, error)
}

// Store is the catalog store. One instance exists per running
// application; construct it once at startup and inject it.
type Store struct {
	books        BookStore
	ratings      RatingStore
	shares       ShareStore
	defaultCover string

	mu            sync.RWMutex
	mirrorBooks   []Book
	mirrorRatings []Rating
	loading       bool
}

// NewStore creates the store with an empty mirror. Call Refresh before
// serving reads; IsLoading stays true until the first Refresh finishes.
func NewStore(books BookStore, ratings RatingStore, shares ShareStore, defaultCover string) *Store {
	return &Store{
		books:        books,
		ratings:      ratings,
		shares:       shares,
		defaultCover: defaultCover,
		loading:      true,
	}
}

// Refresh re-fetches books and ratings concurrently. Both collections
// are replaced before the loading flag clears.
func (s *Store) Refresh() error {
	var g errgroup.Group
	g.Go(s.RefreshBooks)
	g.Go(s.RefreshRatings)
	err := g.Wait()

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	return err
}

// RefreshBooks replaces the book mirror with the remote collection,
// newest first. Blank cover fields are substituted with the default
// cover URL at mapping time.
func (s *Store) RefreshBooks() error {
	rows, err := s.books.ListBooks()
	if err != nil {
		return fmt.Errorf("failed to fetch books: %w", err)
	}

	mirror := make([]Book, 0, len(rows))
	for _, row := range rows {
		mirror = append(mirror, s.mapBook(row))
	}

	s.mu.Lock()
	s.mirrorBooks = mirror
	s.mu.Unlock()
	return nil
}

// RefreshRatings replaces the rating mirror with the remote collection.
func (s *Store) RefreshRatings() error {
	rows, err := s.ratings.ListRatings()
	if err != nil {
		return fmt.Errorf("failed to fetch ratings: %w", err)
	}

	mirror := make([]Rating, 0, len(rows))
	for _, row := range rows {
		mirror = append(mirror, Rating{BookID: row.BookID, UserID: row.UserID, Rating: row.Rating})
	}

	s.mu.Lock()
	s.mirrorRatings = mirror
	s.mu.Unlock()
	return nil
}

// AddBook inserts one book row, optionally attributed to a contributor,
// and refreshes the book mirror before returning. A caller that sees
// AddBook succeed also sees the new book in Books().
func (s *Store) AddBook(fields NewBook, contributorID string) (Book, error) {
	if fields.Title == "" {
		return Book{}, ErrTitleRequired
	}
	if fields.Author == "" {
		return Book{}, ErrAuthorRequired
	}
	if fields.Content == "" {
		return Book{}, ErrContentRequired
	}

	cover := fields.CoverImage
	if cover == "" {
		cover = s.defaultCover
	}

	row := entities.Book{
		ID:            uuid.NewString(),
		Title:         fields.Title,
		Author:        fields.Author,
		CoverURL:      cover,
		Content:       fields.Content,
		Description:   fields.Description,
		ContributorID: contributorID,
		CreatedAt:     time.Now(),
	}

	if err := s.books.InsertBook(&row); err != nil {
		return Book{}, fmt.Errorf("failed to insert book: %w", err)
	}

	if err := s.RefreshBooks(); err != nil {
		return Book{}, err
	}
	return s.mapBook(row), nil
}

// RateBook upserts the user's score for a book on the (book, user)
// composite key and refreshes the rating mirror. Re-rating overwrites
// the previous score; there is never more than one row per pair.
func (s *Store) RateBook(bookID, userID string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	if _, ok := s.BookByID(bookID); !ok {
		return ErrBookNotFound
	}

	if err := s.ratings.UpsertRating(bookID, userID, rating); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	return s.RefreshRatings()
}

// DeleteBook removes a book row and refreshes the book mirror, keeping
// local state consistent with the store it just wrote to.
func (s *Store) DeleteBook(bookID string) error {
	if _, ok := s.BookByID(bookID); !ok {
		return ErrBookNotFound
	}

	if err := s.books.DeleteBook(bookID); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	return s.RefreshBooks()
}

// RecordShare appends a share activity row for a book in the mirror.
// Title and email are denormalized into the row.
func (s *Store) RecordShare(bookID, userID, userEmail, platform string) error {
	book, ok := s.BookByID(bookID)
	if !ok {
		return ErrBookNotFound
	}

	activity := entities.ShareActivity{
		ID:        uuid.NewString(),
		BookID:    book.ID,
		BookTitle: book.Title,
		UserID:    userID,
		UserEmail: userEmail,
		Platform:  platform,
		SharedAt:  time.Now(),
	}

	if err := s.shares.RecordShare(&activity); err != nil {
		return fmt.Errorf("failed to record share: %w", err)
	}
	return nil
}

// ListShares returns the share activity log, newest first.
func (s *Store) ListShares() ([]entities.ShareActivity, error) {
	return s.shares.ListShares()
}

// Books returns a copy of the book mirror. Callers must not assume the
// slice tracks later refreshes.
func (s *Store) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := make([]Book, len(s.mirrorBooks))
	copy(books, s.mirrorBooks)
	return books
}

// BookByID finds a book in the mirror.
func (s *Store) BookByID(id string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, book := range s.mirrorBooks {
		if book.ID == id {
			return book, true
		}
	}
	return Book{}, false
}

// AverageRating returns the arithmetic mean of all ratings for a book,
// or 0 when the book has none. The exact mean is returned; rounding is
// a display concern.
func (s *Store) AverageRating(bookID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, count := 0, 0
	for _, rating := range s.mirrorRatings {
		if rating.BookID == bookID {
			sum += rating.Rating
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// UserRating returns the user's score for a book, or 0 if they have
// not rated it.
func (s *Store) UserRating(bookID, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rating := range s.mirrorRatings {
		if rating.BookID == bookID && rating.UserID == userID {
			return rating.Rating
		}
	}
	return 0
}

// ContributionCount returns how many books in the current catalog are
// attributed to the user. Deleted books no longer count.
func (s *Store) ContributionCount(userID string) int {
	if userID == "" {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, book := range s.mirrorBooks {
		if book.ContributorID == userID {
			count++
		}
	}
	return count
}

// CanDownload reports whether the user has unlocked downloads by
// contributing at least one book still in the catalog.
func (s *Store) CanDownload(userID string) bool {
	return s.ContributionCount(userID) > 0
}

// IsLoading is true from construction until the first Refresh completes.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) mapBook(row entities.Book) Book {
	cover := row.CoverURL
	if cover == "" {
		cover = s.defaultCover
	}
	return Book{
		ID:            row.ID,
		Title:         row.Title,
		Author:        row.Author,
		CoverImage:    cover,
		Content:       row.Content,
		Description:   row.Description,
		ContributorID: row.ContributorID,
		CreatedAt:     row.CreatedAt,
	}
}

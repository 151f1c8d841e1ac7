package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/ebookshelf/internal/entities"
)

// seedBooks is the starter catalog created on first run. These books
// have no contributor and never count toward download eligibility.
var seedBooks = []entities.Book{
	{
		ID:          "1",
		Title:       "The Great Gatsby",
		Author:      "F. Scott Fitzgerald",
		CoverURL:    "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=300&h=400&fit=crop",
		Content:     "In my younger and more vulnerable years my father gave me some advice that I've been turning over in my mind ever since.\n\n\"Whenever you feel like criticizing anyone,\" he told me, \"just remember that all the people in this world haven't had the advantages that you've had.\"\n\nHe didn't say any more, but we've always been unusually communicative in a reserved way, and I understood that he meant a great deal more than that. In consequence, I'm inclined to reserve all judgments, a habit that has opened up many curious natures to me and also made me the victim of not a few veteran bores.",
		Description: "A story of decadence and excess in the Jazz Age.",
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	},
	{
		ID:          "2",
		Title:       "Pride and Prejudice",
		Author:      "Jane Austen",
		CoverURL:    "https://images.unsplash.com/photo-1543002588-bfa74002ed7e?w=300&h=400&fit=crop",
		Content:     "It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife.\n\nHowever little known the feelings or views of such a man may be on his first entering a neighbourhood, this truth is so well fixed in the minds of the surrounding families, that he is considered the rightful property of some one or other of their daughters.",
		Description: "A romantic novel of manners.",
		CreatedAt:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	},
	{
		ID:          "3",
		Title:       "1984",
		Author:      "George Orwell",
		CoverURL:    "https://images.unsplash.com/photo-1495446815901-a7297e633e8d?w=300&h=400&fit=crop",
		Content:     "It was a bright cold day in April, and the clocks were striking thirteen. Winston Smith, his chin nuzzled into his breast in an effort to escape the vile wind, slipped quickly through the glass doors of Victory Mansions, though not quickly enough to prevent a swirl of gritty dust from entering along with him.\n\nThe hallway smelt of boiled cabbage and old rag mats.",
		Description: "A dystopian social science fiction novel.",
		CreatedAt:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	},
}

var seedRatings = []entities.Rating{
	{BookID: "1", UserID: "demo", Rating: 5},
	{BookID: "2", UserID: "demo", Rating: 4},
	{BookID: "3", UserID: "demo", Rating: 5},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Credential{},
		&entities.Profile{},
		&entities.UserRole{},
		&entities.Book{},
		&entities.Rating{},
		&entities.ShareActivity{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	// Seed the starter catalog
	if err := database.seedCatalog(); err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedCatalog() error {
	for _, book := range seedBooks {
		var existing entities.Book
		result := d.DB.Where("id = ?", book.ID).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&book).Error; err != nil {
				return fmt.Errorf("failed to create seed book %s: %w", book.Title, err)
			}
			log.Printf("Created seed book: %s", book.Title)
		}
	}

	for _, rating := range seedRatings {
		var existing entities.Rating
		result := d.DB.Where("book_id = ? AND user_id = ?", rating.BookID, rating.UserID).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&rating).Error; err != nil {
				return fmt.Errorf("failed to create seed rating for book %s: %w", rating.BookID, err)
			}
		}
	}

	return nil
}

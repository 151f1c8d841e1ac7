package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./ebookshelf.db"

	// DefaultCoverURL is used for books submitted without a cover image
	DefaultCoverURL = "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=300&h=400&fit=crop"
)

package mongo

import "time"

// Config holds MongoDB connection and collection settings
type Config struct {
	// URI is the MongoDB connection string
	URI string

	// Database and Collection locate the score records
	Database   string
	Collection string

	// Pool settings
	MaxPoolSize uint64

	// ConnectTimeout bounds server selection and initial handshakes
	ConnectTimeout time.Duration
}

// DefaultConfig returns sensible defaults for MongoDB configuration
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "RaceGame",
		Collection:     "Leaderboard",
		MaxPoolSize:    50,
		ConnectTimeout: 10 * time.Second,
	}
}

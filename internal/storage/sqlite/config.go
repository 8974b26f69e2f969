package sqlite

// Config holds SQLite settings
type Config struct {
	// Path is the database file; ":memory:" keeps everything in process
	Path string

	// Table is the table holding score records
	Table string

	// BusyTimeoutMS bounds how long a writer waits on a locked database
	BusyTimeoutMS int
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{
		Path:          "./data/raceboard.db",
		Table:         "Leaderboard",
		BusyTimeoutMS: 5000,
	}
}

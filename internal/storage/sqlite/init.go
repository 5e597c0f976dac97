package sqlite

import (
	"database/sql"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and creates the grabs table
// if it doesn't exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS grabs (
		id INTEGER PRIMARY KEY,
		torrent_id TEXT UNIQUE,
		title TEXT,
		file_path TEXT,
		grabbed_at DATETIME,
		status TEXT DEFAULT 'grabbed'
	)`)

	if err != nil {
		db.Close()

		return nil, err
	}

	return db, nil
}

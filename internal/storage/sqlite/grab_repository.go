package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pedroespecial101/mam-downloader/internal/storage"
)

// GrabRepository persists the grab history in SQLite.
type GrabRepository struct {
	db *sql.DB
}

var _ storage.GrabRepository = (*GrabRepository)(nil)

func NewGrabRepository(db *sql.DB) *GrabRepository {
	return &GrabRepository{db: db}
}

func (r *GrabRepository) GetGrabs() ([]storage.GrabRecord, error) {
	rows, err := r.db.Query(`SELECT torrent_id, title, file_path, grabbed_at, status FROM grabs ORDER BY grabbed_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grabs []storage.GrabRecord

	for rows.Next() {
		var record storage.GrabRecord

		var title, filePath sql.NullString

		if err := rows.Scan(&record.TorrentID, &title, &filePath, &record.GrabbedAt, &record.Status); err != nil {
			return nil, err
		}

		record.Title = title.String
		record.FilePath = filePath.String

		grabs = append(grabs, record)
	}

	return grabs, rows.Err()
}

func (r *GrabRepository) IsGrabbed(torrentID string) (bool, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(1) FROM grabs WHERE torrent_id = ?`, torrentID).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// TrackGrab records a grabbed torrent. A torrent id that is already
// recorded yields storage.ErrAlreadyGrabbed.
func (r *GrabRepository) TrackGrab(torrentID, title, filePath string) error {
	_, err := r.db.Exec(
		`INSERT INTO grabs (torrent_id, title, file_path, grabbed_at) VALUES (?, ?, ?, ?)`,
		torrentID, title, filePath, time.Now().Format(time.RFC3339),
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return storage.ErrAlreadyGrabbed
	}

	return err
}

func (r *GrabRepository) UpdateGrabStatus(torrentID, status string) error {
	_, err := r.db.Exec(`UPDATE grabs SET status = ? WHERE torrent_id = ?`, status, torrentID)

	return err
}

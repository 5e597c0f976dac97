package storage

import "errors"

// ErrAlreadyGrabbed signals a torrent id that is already recorded in the
// grab history.
var ErrAlreadyGrabbed = errors.New("torrent already grabbed")

// GrabRecord is one entry of the grab history: a torrent whose content
// descriptor was fetched from the catalog service.
type GrabRecord struct {
	TorrentID string
	Title     string
	FilePath  string
	GrabbedAt string
	Status    string
}

// GrabReadRepository reads grab history.
type GrabReadRepository interface {
	GetGrabs() ([]GrabRecord, error)
	IsGrabbed(torrentID string) (bool, error)
}

// GrabWriteRepository records grabs and status changes.
type GrabWriteRepository interface {
	TrackGrab(torrentID, title, filePath string) error
	UpdateGrabStatus(torrentID, status string) error
}

// GrabRepository combines reads and writes.
type GrabRepository interface {
	GrabReadRepository
	GrabWriteRepository
}

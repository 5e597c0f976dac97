// Package engine defines the port to the external transfer engine that
// moves actual content. The orchestrator depends only on this shape.
package engine

import (
	"context"
	"errors"
)

// ErrUnknownHandle is returned for operations on a handle the engine is
// not tracking.
var ErrUnknownHandle = errors.New("engine: unknown handle")

// Status is one immutable snapshot of a transfer as reported by the
// engine. The orchestrator derives its progress view from this.
type Status struct {
	Name     string
	State    string // engine-reported, free-form
	Progress float64

	DownloadRate int64 // bytes/sec
	UploadRate   int64 // bytes/sec
	Peers        int
	Seeds        int

	TotalWanted     int64
	TotalWantedDone int64
	AllTimeUpload   int64

	Finished bool
	Seeding  bool
	Err      string // non-empty means the engine flagged an error
}

// Engine is the transfer engine contract. Handles are opaque ownership
// tokens, exactly one per content item; the engine tracks live handles
// until Remove or Close.
type Engine interface {
	// Add registers a content descriptor (.torrent file) for transfer
	// into savePath and returns the new handle.
	Add(ctx context.Context, torrentPath, savePath string) (string, error)

	// Status returns a snapshot for a live handle.
	Status(id string) (Status, error)

	Pause(id string) error
	Resume(id string) error

	// Remove releases a handle, optionally deleting transferred data.
	Remove(id string, deleteFiles bool) error

	// RequestResumePersist asks the engine to persist resume state for a
	// live handle so a later session can pick the transfer back up.
	RequestResumePersist(id string) error

	// Handles lists all live handles.
	Handles() []string

	// Close releases every live handle and shuts the engine down.
	Close() error
}

package transfer

import "github.com/pedroespecial101/mam-downloader/internal/engine"

// State is the orchestrator's view of a transfer's lifecycle.
type State string

const (
	StateQueued      State = "queued"
	StateChecking    State = "checking"
	StateDownloading State = "downloading"
	StateSeeding     State = "seeding"
	StatePaused      State = "paused"
	StateFinished    State = "finished"
	StateError       State = "error"
)

// stateFromStatus maps an engine-reported status onto the enumerated
// set. The orchestrator never forces a state; an engine error flag wins
// over whatever state string the engine reported.
func stateFromStatus(s engine.Status) State {
	if s.Err != "" {
		return StateError
	}

	switch s.State {
	case "queued":
		return StateQueued
	case "checking":
		return StateChecking
	case "seeding":
		return StateSeeding
	case "paused":
		return StatePaused
	case "finished":
		return StateFinished
	default:
		return StateDownloading
	}
}

// Terminal reports whether the download phase cannot progress further.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateError
}

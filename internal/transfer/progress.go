package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pedroespecial101/mam-downloader/internal/engine"
)

// Progress is an immutable snapshot of one transfer, derived from the
// engine's raw status.
type Progress struct {
	Name     string
	State    State
	Progress float64 // 0.0 to 1.0

	DownloadRate int64 // bytes/sec
	UploadRate   int64 // bytes/sec
	Peers        int
	Seeds        int

	TotalSize  int64
	Downloaded int64
	Uploaded   int64

	Ratio float64
	ETA   int64 // seconds, -1 if unknown
}

// FromStatus derives a Progress from a raw engine status. ETA is -1
// when the download rate is zero (never divide by zero, never
// extrapolate from a stale rate); ratio is 0 until anything has been
// downloaded.
func FromStatus(s engine.Status) Progress {
	eta := int64(-1)
	if s.DownloadRate > 0 {
		eta = (s.TotalWanted - s.TotalWantedDone) / s.DownloadRate
	}

	var ratio float64
	if s.TotalWantedDone > 0 {
		ratio = float64(s.AllTimeUpload) / float64(s.TotalWantedDone)
	}

	fraction := s.Progress
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	return Progress{
		Name:         s.Name,
		State:        stateFromStatus(s),
		Progress:     fraction,
		DownloadRate: s.DownloadRate,
		UploadRate:   s.UploadRate,
		Peers:        s.Peers,
		Seeds:        s.Seeds,
		TotalSize:    s.TotalWanted,
		Downloaded:   s.TotalWantedDone,
		Uploaded:     s.AllTimeUpload,
		Ratio:        ratio,
		ETA:          eta,
	}
}

// String renders a single human-readable progress line.
func (p Progress) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %.1f%% (%s/%s)",
		strings.ToUpper(string(p.State)),
		p.Progress*100,
		humanize.IBytes(uint64(p.Downloaded)),
		humanize.IBytes(uint64(p.TotalSize)),
	)

	fmt.Fprintf(&b, " dl %s/s ul %s/s peers %d seeds %d ratio %.2f eta %s",
		humanize.IBytes(uint64(p.DownloadRate)),
		humanize.IBytes(uint64(p.UploadRate)),
		p.Peers,
		p.Seeds,
		p.Ratio,
		formatETA(p.ETA),
	)

	return b.String()
}

func formatETA(eta int64) string {
	if eta < 0 {
		return "unknown"
	}

	return (time.Duration(eta) * time.Second).String()
}

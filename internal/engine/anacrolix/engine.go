// Package anacrolix backs the engine port with an in-process
// anacrolix/torrent session.
package anacrolix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/anacrolix/torrent/storage"
	"golang.org/x/time/rate"

	"github.com/pedroespecial101/mam-downloader/internal/engine"
)

// Config tunes the torrent session.
type Config struct {
	DownloadDir     string
	ListenPort      int
	MaxUploadRate   int // KB/s, 0 = unlimited
	MaxDownloadRate int // KB/s, 0 = unlimited
}

// Engine owns one torrent client and the handles added through it.
// It is single-writer: all calls are expected from one goroutine.
type Engine struct {
	client  *torrent.Client
	dataDir string
	handles map[string]*handle
}

type handle struct {
	t        *torrent.Torrent
	savePath string
	paused   bool

	// previous sample, for instantaneous rate derivation
	sampledAt  time.Time
	downloaded int64
	uploaded   int64
}

var _ engine.Engine = (*Engine)(nil)

func New(cfg Config) (*Engine, error) {
	ccfg := torrent.NewDefaultClientConfig()
	ccfg.DataDir = cfg.DownloadDir
	ccfg.Seed = true

	if cfg.ListenPort > 0 {
		ccfg.ListenPort = cfg.ListenPort
	}

	if cfg.MaxUploadRate > 0 {
		ccfg.UploadRateLimiter = rate.NewLimiter(rate.Limit(cfg.MaxUploadRate*1024), 256<<10)
	}

	if cfg.MaxDownloadRate > 0 {
		ccfg.DownloadRateLimiter = rate.NewLimiter(rate.Limit(cfg.MaxDownloadRate*1024), 1<<20)
	}

	client, err := torrent.NewClient(ccfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create torrent client: %w", err)
	}

	return &Engine{
		client:  client,
		dataDir: cfg.DownloadDir,
		handles: make(map[string]*handle),
	}, nil
}

// specFromFile loads a .torrent file and builds the client spec for it.
// Malformed info dictionaries surface as errors rather than a panic from
// the session.
func specFromFile(torrentPath string) (*torrent.TorrentSpec, error) {
	mi, err := metainfo.LoadFromFile(torrentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load torrent file %s: %w", torrentPath, err)
	}

	spec, err := torrent.TorrentSpecFromMetaInfoErr(mi)
	if err != nil {
		return nil, fmt.Errorf("failed to parse torrent metainfo: %w", err)
	}

	return spec, nil
}

// Add loads the .torrent file, registers it with the session, waits for
// the info to be available, and marks everything wanted.
func (e *Engine) Add(ctx context.Context, torrentPath, savePath string) (string, error) {
	spec, err := specFromFile(torrentPath)
	if err != nil {
		return "", err
	}

	if savePath != "" && savePath != e.dataDir {
		spec.Storage = storage.NewFile(savePath)
	}

	t, _, err := e.client.AddTorrentSpec(spec)
	if err != nil {
		return "", fmt.Errorf("failed to add torrent: %w", err)
	}

	select {
	case <-t.GotInfo():
	case <-ctx.Done():
		t.Drop()

		return "", ctx.Err()
	}

	t.DownloadAll()

	if savePath == "" {
		savePath = e.dataDir
	}

	id := t.InfoHash().HexString()
	e.handles[id] = &handle{t: t, savePath: savePath, sampledAt: time.Now()}

	return id, nil
}

func (e *Engine) Status(id string) (engine.Status, error) {
	h, ok := e.handles[id]
	if !ok {
		return engine.Status{}, engine.ErrUnknownHandle
	}

	t := h.t
	stats := t.Stats()

	downloaded := stats.BytesReadUsefulData.Int64()
	uploaded := stats.BytesWrittenData.Int64()

	now := time.Now()
	elapsed := now.Sub(h.sampledAt).Seconds()

	var dlRate, ulRate int64
	if elapsed > 0 {
		dlRate = int64(float64(downloaded-h.downloaded) / elapsed)
		ulRate = int64(float64(uploaded-h.uploaded) / elapsed)
	}

	h.sampledAt = now
	h.downloaded = downloaded
	h.uploaded = uploaded

	length := t.Length()
	done := t.BytesCompleted()
	finished := length > 0 && done >= length

	var progressRatio float64
	if length > 0 {
		progressRatio = float64(done) / float64(length)
	}

	st := engine.Status{
		Name:            t.Name(),
		State:           h.state(finished),
		Progress:        progressRatio,
		DownloadRate:    dlRate,
		UploadRate:      ulRate,
		Peers:           stats.ActivePeers,
		Seeds:           stats.ConnectedSeeders,
		TotalWanted:     length,
		TotalWantedDone: done,
		AllTimeUpload:   uploaded,
		Finished:        finished,
		Seeding:         t.Seeding() && finished,
	}

	select {
	case <-t.Closed():
		st.Err = "torrent was closed by the session"
	default:
	}

	return st, nil
}

func (h *handle) state(finished bool) string {
	switch {
	case h.paused:
		return "paused"
	case finished && h.t.Seeding():
		return "seeding"
	case finished:
		return "finished"
	case h.t.Info() == nil:
		return "checking"
	default:
		return "downloading"
	}
}

func (e *Engine) Pause(id string) error {
	h, ok := e.handles[id]
	if !ok {
		return engine.ErrUnknownHandle
	}

	// anacrolix has no whole-torrent pause; stopping both data
	// directions keeps the handle alive, which is what matters here.
	h.t.DisallowDataDownload()
	h.t.DisallowDataUpload()
	h.paused = true

	return nil
}

func (e *Engine) Resume(id string) error {
	h, ok := e.handles[id]
	if !ok {
		return engine.ErrUnknownHandle
	}

	h.t.AllowDataDownload()
	h.t.AllowDataUpload()
	h.paused = false

	return nil
}

func (e *Engine) Remove(id string, deleteFiles bool) error {
	h, ok := e.handles[id]
	if !ok {
		return engine.ErrUnknownHandle
	}

	name := h.t.Name()
	hasInfo := h.t.Info() != nil

	h.t.Drop()
	delete(e.handles, id)

	if deleteFiles && hasInfo && name != "" {
		if err := os.RemoveAll(filepath.Join(h.savePath, name)); err != nil {
			return fmt.Errorf("failed to delete transfer data: %w", err)
		}
	}

	return nil
}

// RequestResumePersist is satisfied by the session's storage backend,
// which records piece completion as pieces verify; there is nothing
// extra to flush per handle before Close.
func (e *Engine) RequestResumePersist(id string) error {
	if _, ok := e.handles[id]; !ok {
		return engine.ErrUnknownHandle
	}

	return nil
}

func (e *Engine) Handles() []string {
	ids := make([]string, 0, len(e.handles))
	for id := range e.handles {
		ids = append(ids, id)
	}

	return ids
}

func (e *Engine) Close() error {
	e.client.Close()
	e.handles = make(map[string]*handle)

	return nil
}

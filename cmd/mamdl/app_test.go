package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedroespecial101/mam-downloader/internal/cache"
	"github.com/pedroespecial101/mam-downloader/internal/catalog"
	"github.com/pedroespecial101/mam-downloader/internal/config"
	"github.com/pedroespecial101/mam-downloader/internal/notifier"
	"github.com/pedroespecial101/mam-downloader/internal/storage"
)

type fakeCatalogService struct {
	user       *catalog.User
	candidates []catalog.Candidate

	searches     int
	batchedIDs   [][]string
	fetchedSolos []string
}

func (f *fakeCatalogService) UserDetails(context.Context) (*catalog.User, error) {
	return f.user, nil
}

func (f *fakeCatalogService) HarvestListIDs(context.Context, *catalog.User, string) ([]string, error) {
	return nil, nil
}

func (f *fakeCatalogService) Search(context.Context, catalog.SearchRequest) ([]catalog.Candidate, error) {
	f.searches++

	return f.candidates, nil
}

func (f *fakeCatalogService) FetchTorrent(_ context.Context, torrentID, outputDir string) (string, error) {
	f.fetchedSolos = append(f.fetchedSolos, torrentID)

	return filepath.Join(outputDir, torrentID+".torrent"), nil
}

func (f *fakeCatalogService) FetchBatch(_ context.Context, torrentIDs []string, _ string, _ catalog.BatchOptions) ([]string, error) {
	f.batchedIDs = append(f.batchedIDs, torrentIDs)

	return []string{"batch.zip"}, nil
}

type fakeGrabRepo struct {
	tracked []string
	known   map[string]bool
	failOn  map[string]error
}

func newFakeGrabRepo() *fakeGrabRepo {
	return &fakeGrabRepo{known: make(map[string]bool), failOn: make(map[string]error)}
}

func (r *fakeGrabRepo) TrackGrab(torrentID, _, _ string) error {
	if err, ok := r.failOn[torrentID]; ok {
		return err
	}

	if r.known[torrentID] {
		return storage.ErrAlreadyGrabbed
	}

	r.known[torrentID] = true
	r.tracked = append(r.tracked, torrentID)

	return nil
}

func (r *fakeGrabRepo) UpdateGrabStatus(string, string) error { return nil }
func (r *fakeGrabRepo) IsGrabbed(torrentID string) (bool, error) {
	return r.known[torrentID], nil
}
func (r *fakeGrabRepo) GetGrabs() ([]storage.GrabRecord, error) { return nil, nil }

func newTestApp(t *testing.T, svc catalog.Service, repo storage.GrabRepository) *app {
	t.Helper()

	store, err := cache.Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	return &app{
		cfg:   &config.Config{DataDir: t.TempDir()},
		cache: store,
		svc:   svc,
		repo:  repo,
		notif: notifier.NopNotifier{},
	}
}

func TestRunAutoGrabsNewCandidates(t *testing.T) {
	svc := &fakeCatalogService{
		user: &catalog.User{UID: 1, Unsat: catalog.ListStat{Count: 2, Limit: 5}},
		candidates: []catalog.Candidate{
			{ID: "10", Title: "First"},
			{ID: "11", Title: "Second"},
		},
	}
	repo := newFakeGrabRepo()

	a := newTestApp(t, svc, repo)

	require.NoError(t, runAuto(context.Background(), a, false))

	assert.Equal(t, []string{"10", "11"}, repo.tracked)
	require.Len(t, svc.batchedIDs, 1)
	assert.Equal(t, []string{"10", "11"}, svc.batchedIDs[0])
}

func TestRunAutoDryRunLeavesNoTrace(t *testing.T) {
	svc := &fakeCatalogService{
		user: &catalog.User{UID: 1, Unsat: catalog.ListStat{Count: 2, Limit: 5}},
		candidates: []catalog.Candidate{
			{ID: "10", Title: "First"},
		},
	}
	repo := newFakeGrabRepo()

	a := newTestApp(t, svc, repo)

	require.NoError(t, runAuto(context.Background(), a, true))

	// A later real run must still see these ids as new.
	assert.Empty(t, repo.tracked, "dry run must not write grab history")
	assert.Empty(t, svc.batchedIDs, "dry run must not download")

	require.NoError(t, runAuto(context.Background(), a, false))
	assert.Equal(t, []string{"10"}, repo.tracked)
}

func TestRunAutoUnsatLimitGate(t *testing.T) {
	svc := &fakeCatalogService{
		user: &catalog.User{UID: 1, Unsat: catalog.ListStat{Count: 5, Limit: 5}},
	}
	repo := newFakeGrabRepo()

	a := newTestApp(t, svc, repo)

	require.NoError(t, runAuto(context.Background(), a, false))

	assert.Zero(t, svc.searches, "at the limit there is nothing to browse for")
	assert.Empty(t, svc.batchedIDs)
}

func TestTrackGrabsFiltersHistoryAndFailures(t *testing.T) {
	repo := newFakeGrabRepo()
	repo.known["2"] = true
	repo.failOn["3"] = errors.New("disk I/O error")

	a := newTestApp(t, &fakeCatalogService{}, repo)

	fresh := a.trackGrabs(context.Background(), []string{"1", "2", "3", "4"})

	// Already-grabbed and unrecordable ids never reach the download.
	assert.Equal(t, []string{"1", "4"}, fresh)
	assert.Equal(t, []string{"1", "4"}, repo.tracked)
}

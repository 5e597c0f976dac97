package catalog

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTorrentUsesServerFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tor/download.php", r.URL.Path)
		assert.Equal(t, "123", r.URL.Query().Get("tid"))

		w.Header().Set("Content-Disposition", `attachment; filename="The Hobbit.torrent"`)
		_, _ = w.Write([]byte("d8:announce0:e"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")
	dir := t.TempDir()

	path, err := client.FetchTorrent(context.Background(), "123", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "The Hobbit.torrent"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d8:announce0:e", string(data))
}

func TestFetchTorrentFallbackFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")
	dir := t.TempDir()

	path, err := client.FetchTorrent(context.Background(), "456", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "456.torrent"), path)
}

func TestFetchTorrentRejectsTraversalFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="../../etc/evil.torrent"`)
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")
	dir := t.TempDir()

	path, err := client.FetchTorrent(context.Background(), "789", dir)
	require.NoError(t, err)

	// Only the basename survives.
	assert.Equal(t, filepath.Join(dir, "evil.torrent"), path)
}

func TestFetchTorrentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such torrent"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	_, err := client.FetchTorrent(context.Background(), "999", t.TempDir())
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.Equal(t, "no such torrent", netErr.APIMessage)
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		require.NoError(t, err)

		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestFetchBatchChunksRequests(t *testing.T) {
	var batchSizes []int

	archive := zipArchive(t, map[string]string{"a.torrent": "data"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DownloadZips.php", r.URL.Path)
		assert.Equal(t, "batch", r.URL.Query().Get("type"))

		batchSizes = append(batchSizes, len(r.URL.Query()["tids[]"]))

		_, _ = w.Write(archive)
	}))
	defer server.Close()

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	client := NewClient(server.URL, "session")
	dir := t.TempDir()

	archives, err := client.FetchBatch(context.Background(), ids, dir, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 100, 50}, batchSizes)
	assert.Len(t, archives, 3)

	for _, path := range archives {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
}

func TestFetchBatchExtractsAndDeletes(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"one.torrent": "first",
		"two.torrent": "second",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	destDir := t.TempDir()
	extractDir := t.TempDir()

	archives, err := client.FetchBatch(context.Background(), []string{"1", "2"}, destDir, BatchOptions{
		ExtractDir:     extractDir,
		DeleteArchives: true,
	})
	require.NoError(t, err)
	require.Len(t, archives, 1)

	content, err := os.ReadFile(filepath.Join(extractDir, "one.torrent"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	_, err = os.Stat(archives[0])
	assert.True(t, os.IsNotExist(err), "extracted archive should be removed")
}

func TestFetchBatchServerErrorAborts(t *testing.T) {
	archive := zipArchive(t, map[string]string{"a.torrent": "data"})

	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		if requests > 1 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		_, _ = w.Write(archive)
	}))
	defer server.Close()

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	client := NewClient(server.URL, "session")

	archives, err := client.FetchBatch(context.Background(), ids, t.TempDir(), BatchOptions{})
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusTooManyRequests, netErr.StatusCode)

	// The first archive made it to disk before the failure.
	assert.Len(t, archives, 1)
}

func TestChunkIDs(t *testing.T) {
	assert.Nil(t, chunkIDs(nil, 100))
	assert.Equal(t, [][]string{{"1", "2"}}, chunkIDs([]string{"1", "2"}, 100))
	assert.Equal(t,
		[][]string{{"1", "2"}, {"3", "4"}, {"5"}},
		chunkIDs([]string{"1", "2", "3", "4", "5"}, 2))
}

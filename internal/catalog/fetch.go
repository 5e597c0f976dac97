package catalog

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pedroespecial101/mam-downloader/internal/extract"
	"github.com/pedroespecial101/mam-downloader/internal/logctx"
	"github.com/pedroespecial101/mam-downloader/internal/progress"
)

// The site only allows this many ids per batch archive request.
const batchSize = 100

// BatchOptions controls batch archive retrieval.
type BatchOptions struct {
	// ExtractDir, when set, unpacks each archive there after download.
	ExtractDir string
	// DeleteArchives removes an archive once extracted.
	DeleteArchives bool
	// Delay is the courtesy pause between batch requests.
	Delay time.Duration
}

// FetchTorrent downloads a single content descriptor (.torrent file) and
// writes it under outputDir, honoring the server-provided filename when
// present. A non-success status is fatal for this retrieval.
func (c *Client) FetchTorrent(ctx context.Context, torrentID, outputDir string) (string, error) {
	ctx = logctx.WithOperation(ctx, "fetch_torrent")
	logger := logctx.LoggerFromContext(ctx).With("torrent_id", torrentID)

	resp, err := c.get(ctx, "/tor/download.php?tid="+url.QueryEscape(torrentID))
	if err != nil {
		return "", fmt.Errorf("failed to fetch torrent %s: %w", torrentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{Operation: "fetch_torrent", StatusCode: resp.StatusCode, APIMessage: drainBody(resp.Body)}
	}

	filename := torrentID + ".torrent"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
			filename = name
		}
	}

	path := filepath.Join(outputDir, filename)
	if err := writeResponse(ctx, resp, path); err != nil {
		return "", err
	}

	logger.InfoContext(ctx, "downloaded torrent file", "target", path)

	return path, nil
}

// FetchBatch retrieves content descriptors for the given identifiers as
// zip archives, at most 100 ids per request, pausing between batches.
// A failing batch aborts the whole run; archives written so far are
// returned alongside the error.
func (c *Client) FetchBatch(ctx context.Context, torrentIDs []string, destDir string, opts BatchOptions) ([]string, error) {
	ctx = logctx.WithOperation(ctx, "fetch_batch")
	logger := logctx.LoggerFromContext(ctx)

	var archives []string

	batches := chunkIDs(torrentIDs, batchSize)

	for i, batch := range batches {
		q := url.Values{}
		q.Set("type", "batch")

		for _, id := range batch {
			q.Add("tids[]", id)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/DownloadZips.php?"+q.Encode(), nil)
		if err != nil {
			return archives, fmt.Errorf("failed to create batch request: %w", err)
		}

		req.Header.Set("Content-Type", "application/x-zip")
		c.setSession(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return archives, fmt.Errorf("failed to fetch batch %d: %w", i, err)
		}

		if resp.StatusCode != http.StatusOK {
			msg := drainBody(resp.Body)
			resp.Body.Close()

			return archives, &NetworkError{Operation: "fetch_batch", StatusCode: resp.StatusCode, APIMessage: msg}
		}

		path := filepath.Join(destDir, fmt.Sprintf("batch_%d.zip", time.Now().UnixNano()))

		err = writeResponse(ctx, resp, path)
		resp.Body.Close()

		if err != nil {
			return archives, err
		}

		archives = append(archives, path)
		logger.InfoContext(ctx, "downloaded batch archive", "target", path, "ids", len(batch))

		if opts.ExtractDir != "" {
			logger.InfoContext(ctx, "extracting archive", "archive", path, "dir", opts.ExtractDir)

			if err := extract.Unzip(path, opts.ExtractDir); err != nil {
				return archives, fmt.Errorf("failed to extract %s: %w", path, err)
			}

			if opts.DeleteArchives {
				if err := os.Remove(path); err != nil {
					logger.WarnContext(ctx, "failed to remove extracted archive", "archive", path, "err", err)
				}
			}
		}

		if i < len(batches)-1 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return archives, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	return archives, nil
}

// chunkIDs splits ids into consecutive groups of at most size.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string

	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}

		chunks = append(chunks, ids[start:end])
	}

	return chunks
}

func writeResponse(ctx context.Context, resp *http.Response, targetPath string) error {
	logger := logctx.LoggerFromContext(ctx)

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	out, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}
	defer out.Close()

	progressInterval := int64(1024 * 1024) // 1MB
	pr := progress.NewReader(resp.Body, resp.ContentLength, progressInterval, func(written, total int64) {
		logger.DebugContext(ctx, "download progress", "target", targetPath, "downloaded", written, "total", total)
	})

	if _, err := io.Copy(out, pr); err != nil {
		return fmt.Errorf("failed to copy response body: %w", err)
	}

	return nil
}

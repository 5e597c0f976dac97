package catalog

import (
	"context"

	"github.com/pedroespecial101/mam-downloader/internal/telemetry"
)

// InstrumentedClient wraps a catalog Service with telemetry.
type InstrumentedClient struct {
	svc Service
	tel *telemetry.Telemetry
}

var _ Service = (*InstrumentedClient)(nil)

// NewInstrumentedClient creates a new instrumented catalog client.
func NewInstrumentedClient(svc Service, tel *telemetry.Telemetry) *InstrumentedClient {
	return &InstrumentedClient{svc: svc, tel: tel}
}

func (c *InstrumentedClient) UserDetails(ctx context.Context) (*User, error) {
	var user *User

	err := c.tel.InstrumentClientOperation(ctx, "user_details", func(ctx context.Context) error {
		var err error
		user, err = c.svc.UserDetails(ctx)

		return err
	})

	return user, err
}

func (c *InstrumentedClient) HarvestListIDs(ctx context.Context, user *User, listType string) ([]string, error) {
	var ids []string

	err := c.tel.InstrumentClientOperation(ctx, "harvest_list", func(ctx context.Context) error {
		var err error
		ids, err = c.svc.HarvestListIDs(ctx, user, listType)

		return err
	})

	return ids, err
}

func (c *InstrumentedClient) Search(ctx context.Context, req SearchRequest) ([]Candidate, error) {
	var candidates []Candidate

	err := c.tel.InstrumentClientOperation(ctx, "search", func(ctx context.Context) error {
		var err error
		candidates, err = c.svc.Search(ctx, req)

		return err
	})

	return candidates, err
}

func (c *InstrumentedClient) FetchTorrent(ctx context.Context, torrentID, outputDir string) (string, error) {
	var path string

	err := c.tel.InstrumentClientOperation(ctx, "fetch_torrent", func(ctx context.Context) error {
		var err error
		path, err = c.svc.FetchTorrent(ctx, torrentID, outputDir)

		return err
	})

	if err != nil {
		c.tel.RecordGrab(ctx, "error")

		return "", err
	}

	c.tel.RecordGrab(ctx, "success")

	return path, nil
}

func (c *InstrumentedClient) FetchBatch(ctx context.Context, torrentIDs []string, destDir string, opts BatchOptions) ([]string, error) {
	var archives []string

	err := c.tel.InstrumentClientOperation(ctx, "fetch_batch", func(ctx context.Context) error {
		var err error
		archives, err = c.svc.FetchBatch(ctx, torrentIDs, destDir, opts)

		return err
	})

	status := "success"
	if err != nil {
		status = "error"
	}

	for range torrentIDs {
		c.tel.RecordGrab(ctx, status)
	}

	return archives, err
}

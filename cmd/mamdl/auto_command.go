package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pedroespecial101/mam-downloader/internal/catalog"
	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

// newAutoCommand is the unattended flow: refresh ownership lists, browse
// for new candidates up to the unsat headroom, and grab them in batches.
func newAutoCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Browse and grab new torrents up to the unsat limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			return runAuto(ctx, a, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do everything except write/download files")

	return cmd
}

func runAuto(ctx context.Context, a *app, dryRun bool) error {
	logger := logctx.LoggerFromContext(ctx)

	user, err := a.svc.UserDetails(ctx)
	if err != nil {
		return fmt.Errorf("session check failed: %w", err)
	}

	a.maybeSendStats(ctx, user)
	a.maybeSpendPoints(ctx)

	if user.Unsat.Count >= user.Unsat.Limit {
		logger.Info("unsaturated torrent limit reached, not continuing",
			"unsat", user.Unsat.Count, "limit", user.Unsat.Limit)

		return nil
	}

	owned, err := a.syncOwned(ctx, user)
	if err != nil {
		return err
	}

	amount := user.Unsat.Limit - user.Unsat.Count
	logger.Info("browsing for torrents", "amount", amount)

	candidates, err := a.svc.Search(ctx, catalog.SearchRequest{
		Max:   amount,
		Owned: owned,
	})
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		logger.Info("nothing new to grab")

		return nil
	}

	// Dry run stops before anything durable: no history rows, no files.
	if dryRun {
		logger.Info("dry run enabled, not downloading", "candidates", len(candidates))

		return nil
	}

	ids := a.trackGrabs(ctx, catalog.IDs(candidates))
	if len(ids) == 0 {
		logger.Info("all candidates already in grab history")

		return nil
	}

	logger.Info("grabbing batch", "count", len(ids))

	_, err = a.svc.FetchBatch(ctx, ids, a.cfg.DataDir, a.batchOptions(""))

	return err
}

// batchOptions builds archive retrieval options, with an optional
// per-run extract directory override.
func (a *app) batchOptions(extractOverride string) catalog.BatchOptions {
	extractDir := a.cfg.ExtractDir
	if extractOverride != "" {
		extractDir = extractOverride
	}

	return catalog.BatchOptions{
		ExtractDir:     extractDir,
		DeleteArchives: a.cfg.DeleteArchives,
		Delay:          a.cfg.BatchDelay,
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

func newGrabCommand() *cobra.Command {
	var (
		id         string
		extractDir string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "grab",
		Short: "Download a single torrent by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			logger := logctx.LoggerFromContext(ctx)

			if _, err := a.svc.UserDetails(ctx); err != nil {
				return fmt.Errorf("checking session: %w", err)
			}

			if dryRun {
				logger.Info("dry run, skipping download", "id", id)

				return nil
			}

			ids := a.trackGrabs(ctx, []string{id})
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Already grabbed, skipping.")

				return nil
			}

			archives, err := a.svc.FetchBatch(ctx, ids, a.cfg.TorrentDir, a.batchOptions(extractDir))
			if err != nil {
				return fmt.Errorf("downloading: %w", err)
			}

			logger.Info("download complete", "id", id, "archives", len(archives))

			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "torrent id to download")
	cmd.Flags().StringVar(&extractDir, "extract-dir", "", "extract the downloaded archive into this directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the session but do not download")

	_ = cmd.MarkFlagRequired("id")

	return cmd
}

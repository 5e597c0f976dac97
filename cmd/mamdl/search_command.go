package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pedroespecial101/mam-downloader/internal/catalog"
	"github.com/pedroespecial101/mam-downloader/internal/logctx"
	"github.com/pedroespecial101/mam-downloader/internal/rank"
)

func newSearchCommand() *cobra.Command {
	var (
		title      string
		author     string
		extractDir string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog and pick a result to download",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && author == "" {
				return fmt.Errorf("at least one of --title or --author is required")
			}

			a, ctx, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			logger := logctx.LoggerFromContext(ctx)

			user, err := a.svc.UserDetails(ctx)
			if err != nil {
				return fmt.Errorf("checking session: %w", err)
			}

			owned, err := a.syncOwned(ctx, user)
			if err != nil {
				return fmt.Errorf("syncing owned lists: %w", err)
			}

			candidates, err := a.svc.Search(ctx, catalog.SearchRequest{
				Title:  title,
				Author: author,
				Max:    a.cfg.MaxFetch,
				Owned:  owned,
			})
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}

			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results found.")

				return nil
			}

			ranked := rank.Rank(candidates, title, author, a.cfg.TopResults)
			if len(ranked) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No close matches found.")

				return nil
			}

			idx, ok := promptSelection(os.Stdin, cmd.OutOrStdout(), ranked)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")

				return nil
			}

			chosen := ranked[idx].Candidate

			if dryRun {
				logger.Info("dry run, skipping download", "id", chosen.ID, "title", chosen.Title)

				return nil
			}

			ids := a.trackGrabs(ctx, []string{chosen.ID})
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Already grabbed, skipping.")

				return nil
			}

			if _, err := a.svc.FetchBatch(ctx, ids, a.cfg.TorrentDir, a.batchOptions(extractDir)); err != nil {
				return fmt.Errorf("downloading: %w", err)
			}

			logger.Info("download complete", "id", chosen.ID, "title", chosen.Title)

			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title to search for")
	cmd.Flags().StringVar(&author, "author", "", "author to search for")
	cmd.Flags().StringVar(&extractDir, "extract-dir", "", "extract downloaded archives into this directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "rank and select but do not download")

	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the cached ownership lists",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			logger.Info("ownership lists synced", "lists", a.cfg.SkipLists, "owned", owned.Len())

			return nil
		},
	}
}

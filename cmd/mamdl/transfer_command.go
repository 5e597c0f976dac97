package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	anacrolixengine "github.com/pedroespecial101/mam-downloader/internal/engine/anacrolix"
	"github.com/pedroespecial101/mam-downloader/internal/logctx"
	"github.com/pedroespecial101/mam-downloader/internal/transfer"
)

func newTransferCommand() *cobra.Command {
	var (
		id   string
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "transfer [torrent file]",
		Short: "Download the contents of a torrent and optionally seed it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && id == "" {
				return fmt.Errorf("either a torrent file or --id is required")
			}

			a, ctx, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			logger := logctx.LoggerFromContext(ctx)

			torrentPath := ""
			if len(args) > 0 {
				torrentPath = args[0]
			}

			if torrentPath == "" {
				if _, err := a.svc.UserDetails(ctx); err != nil {
					return fmt.Errorf("checking session: %w", err)
				}

				torrentPath, err = a.svc.FetchTorrent(ctx, id, a.cfg.TorrentDir)
				if err != nil {
					return fmt.Errorf("fetching torrent file: %w", err)
				}

				a.trackGrabs(ctx, []string{id})
			}

			eng, err := anacrolixengine.New(anacrolixengine.Config{
				DownloadDir:     a.cfg.DownloadDir,
				ListenPort:      a.cfg.ListenPort,
				MaxUploadRate:   a.cfg.MaxUploadRate,
				MaxDownloadRate: a.cfg.MaxDownloadRate,
			})
			if err != nil {
				return fmt.Errorf("starting transfer engine: %w", err)
			}

			orch := transfer.NewOrchestrator(eng, a.cfg.PollInterval)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			group, groupCtx := errgroup.WithContext(runCtx)

			var metricsServer *http.Server
			if a.cfg.MetricsBindAddress != "" {
				metricsServer = &http.Server{
					Addr:              a.cfg.MetricsBindAddress,
					Handler:           a.tel.Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				}

				group.Go(func() error {
					logger.Info("metrics listener started", "addr", metricsServer.Addr)

					if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}

					return nil
				})
			}

			group.Go(func() error {
				defer cancel()

				return runTransfer(groupCtx, a, orch, torrentPath, seed)
			})

			group.Go(func() error {
				<-groupCtx.Done()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()

				if metricsServer != nil {
					if err := metricsServer.Shutdown(shutdownCtx); err != nil {
						logger.Error("failed to stop metrics listener", "err", err)
					}
				}

				return orch.Shutdown(shutdownCtx)
			})

			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "torrent id to fetch and transfer")
	cmd.Flags().BoolVar(&seed, "seed", false, "keep seeding until the ratio or time goal is met")

	return cmd
}

func runTransfer(ctx context.Context, a *app, orch *transfer.Orchestrator, torrentPath string, seed bool) error {
	logger := logctx.LoggerFromContext(ctx)

	handle, err := orch.Add(ctx, torrentPath, a.cfg.DownloadDir)
	if err != nil {
		a.tel.RecordTransfer(ctx, "add", "error")

		return fmt.Errorf("adding transfer: %w", err)
	}

	a.tel.RecordTransfer(ctx, "add", "ok")

	if err := orch.WaitForCompletion(ctx, handle, nil); err != nil {
		a.tel.RecordTransfer(ctx, "download", "error")

		return fmt.Errorf("waiting for completion: %w", err)
	}

	a.tel.RecordTransfer(ctx, "download", "ok")

	if !seed {
		return nil
	}

	goal := transfer.Goal{Ratio: a.cfg.SeedRatio, Duration: a.cfg.SeedTime}

	last, err := orch.SeedToGoal(ctx, handle, goal, nil)
	if err != nil {
		a.tel.RecordTransfer(ctx, "seed", "error")

		return fmt.Errorf("seeding: %w", err)
	}

	a.tel.RecordTransfer(ctx, "seed", "ok")
	logger.Info("seeding goal reached", "ratio", last.Ratio)

	return nil
}

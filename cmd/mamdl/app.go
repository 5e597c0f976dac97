package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pedroespecial101/mam-downloader/internal/cache"
	"github.com/pedroespecial101/mam-downloader/internal/catalog"
	"github.com/pedroespecial101/mam-downloader/internal/config"
	"github.com/pedroespecial101/mam-downloader/internal/logctx"
	"github.com/pedroespecial101/mam-downloader/internal/notifier"
	"github.com/pedroespecial101/mam-downloader/internal/storage"
	"github.com/pedroespecial101/mam-downloader/internal/storage/sqlite"
	"github.com/pedroespecial101/mam-downloader/internal/telemetry"
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg    *config.Config
	cache  *cache.Cache
	svc    catalog.Service
	client *catalog.Client // concrete client, for session-level extras
	repo   storage.GrabRepository
	notif  notifier.Notifier
	tel    *telemetry.Telemetry
	db     *sql.DB
}

func newApp(ctx context.Context) (*app, context.Context, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, ctx, fmt.Errorf("config error: %w", err)
	}

	handler := logctx.NewOperationHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger := slog.New(handler)
	slog.SetDefault(logger)
	ctx = logctx.WithLogger(ctx, logger)

	// =========================================================================
	// Persistent Cache
	store, err := cache.Open(filepath.Join(cfg.DataDir, "data.json"))
	if err != nil {
		return nil, ctx, fmt.Errorf("cache error: %w", err)
	}

	if store.Fresh() {
		store.SetFloat("lastDonate", 0)
		store.SetFloat("statsLastSend", 0)

		if err := store.Save(); err != nil {
			return nil, ctx, fmt.Errorf("cache error: %w", err)
		}
	}

	// =========================================================================
	// Telemetry
	tel, err := telemetry.New("mamdl")
	if err != nil {
		return nil, ctx, fmt.Errorf("telemetry error: %w", err)
	}

	// =========================================================================
	// Catalog Client
	client := catalog.NewClient(cfg.BaseURL, cfg.MamID)
	svc := catalog.NewInstrumentedClient(client, tel)

	// =========================================================================
	// Grab History
	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return nil, ctx, fmt.Errorf("DB error: %w", err)
	}

	// =========================================================================
	// Notification
	var notif notifier.Notifier = notifier.NopNotifier{}
	if cfg.DiscordWebhookURL != "" {
		notif = &notifier.DiscordNotifier{WebhookURL: cfg.DiscordWebhookURL}
	}

	return &app{
		cfg:    cfg,
		cache:  store,
		svc:    svc,
		client: client,
		repo:   sqlite.NewGrabRepository(db),
		notif:  notif,
		tel:    tel,
		db:     db,
	}, ctx, nil
}

func (a *app) Close(ctx context.Context) {
	logger := logctx.LoggerFromContext(ctx)

	if err := a.db.Close(); err != nil {
		logger.Error("failed to close database", "err", err)
	}

	if err := a.tel.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down telemetry", "err", err)
	}
}

// maybeSendStats sends the account-stats webhook when the configured
// interval has elapsed since the last send.
func (a *app) maybeSendStats(ctx context.Context, user *catalog.User) {
	logger := logctx.LoggerFromContext(ctx)

	if a.cfg.StatsInterval <= 0 {
		return
	}

	lastSend, _ := a.cache.Float("statsLastSend")
	if time.Since(time.Unix(int64(lastSend), 0)) < a.cfg.StatsInterval {
		return
	}

	// Account-level ratio keeps the infinity convention for a fresh
	// account; it is only ever displayed.
	ratio := math.Inf(1)
	if user.DownloadedBytes > 0 {
		ratio = float64(user.UploadedBytes) / float64(user.DownloadedBytes)
	}

	err := a.notif.NotifyFields("", []notifier.Field{
		{Name: "Uploaded", Value: user.Uploaded, Inline: true},
		{Name: "Downloaded", Value: user.Downloaded, Inline: true},
		{Name: "Ratio", Value: fmt.Sprintf("%.2f", ratio), Inline: true},
	})
	if err != nil {
		logger.Error("failed to send stats notification", "err", err)

		return
	}

	a.cache.SetFloat("statsLastSend", float64(time.Now().Unix()))

	if err := a.cache.Save(); err != nil {
		logger.Error("failed to persist cache", "err", err)
	}
}

// maybeSpendPoints buys upload credit with free bonus points when enabled.
func (a *app) maybeSpendPoints(ctx context.Context) {
	logger := logctx.LoggerFromContext(ctx)

	if !a.cfg.AutoSpendPoints {
		return
	}

	amount, success, err := a.client.SpendBonusPoints(ctx)
	if err != nil {
		logger.Error("failed to spend bonus points", "err", err)

		return
	}

	if success {
		if err := a.notif.Notify(amount + " GB upload credit purchased."); err != nil {
			logger.Error("failed to send notification", "err", err)
		}
	}
}

// syncOwned refreshes the configured skip lists and returns their union.
func (a *app) syncOwned(ctx context.Context, user *catalog.User) (catalog.OwnedSet, error) {
	return catalog.SyncOwnedLists(ctx, a.svc, user, a.cache, a.cfg.SkipLists)
}

// trackGrabs records grabbed ids, dropping the ones already in history.
// Returns the ids that were new. An id whose history row cannot be
// written is skipped too: downloading it would leave nothing to stop
// the next run from grabbing it again.
func (a *app) trackGrabs(ctx context.Context, ids []string) []string {
	logger := logctx.LoggerFromContext(ctx)

	fresh := make([]string, 0, len(ids))

	for _, id := range ids {
		err := a.repo.TrackGrab(id, "", "")
		if errors.Is(err, storage.ErrAlreadyGrabbed) {
			logger.Debug("skipping already grabbed torrent", "torrent_id", id)

			continue
		}

		if err != nil {
			logger.Error("failed to track grab, skipping", "torrent_id", id, "err", err)

			continue
		}

		fresh = append(fresh, id)
	}

	return fresh
}

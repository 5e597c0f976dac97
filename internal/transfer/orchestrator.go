// Package transfer drives one external transfer handle from addition to
// completion and, optionally, on to a seeding goal.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/pedroespecial101/mam-downloader/internal/engine"
	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

const (
	defaultPollInterval = time.Second
	shutdownGracePeriod = 2 * time.Second
)

// Goal ends a post-completion seeding phase: it is satisfied as soon as
// the transfer's ratio reaches Ratio or the phase has run for Duration.
type Goal struct {
	Ratio    float64
	Duration time.Duration
}

// Satisfied checks the goal against a current ratio and the elapsed
// wall-clock time since the seeding phase began.
func (g Goal) Satisfied(ratio float64, elapsed time.Duration) bool {
	return ratio >= g.Ratio || elapsed >= g.Duration
}

// Orchestrator owns transfer handles in the engine and runs their wait
// loops. Each loop fully owns the calling goroutine until its own
// termination condition fires; driving N transfers concurrently means N
// independent invocations.
type Orchestrator struct {
	eng          engine.Engine
	pollInterval time.Duration
	gracePeriod  time.Duration
	closed       bool
}

func NewOrchestrator(eng engine.Engine, pollInterval time.Duration) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Orchestrator{
		eng:          eng,
		pollInterval: pollInterval,
		gracePeriod:  shutdownGracePeriod,
	}
}

// Add hands a content descriptor to the engine and returns the handle.
func (o *Orchestrator) Add(ctx context.Context, torrentPath, savePath string) (string, error) {
	logger := logctx.LoggerFromContext(ctx)

	id, err := o.eng.Add(ctx, torrentPath, savePath)
	if err != nil {
		return "", fmt.Errorf("failed to add transfer: %w", err)
	}

	logger.Info("added transfer", "transfer_id", id, "save_path", savePath)

	return id, nil
}

// Progress returns the current derived snapshot for a handle.
func (o *Orchestrator) Progress(id string) (Progress, error) {
	status, err := o.eng.Status(id)
	if err != nil {
		return Progress{}, err
	}

	return FromStatus(status), nil
}

// WaitForCompletion polls the engine at the configured interval until
// the transfer finishes or starts seeding. An engine error flag aborts
// the wait and is surfaced as a *TransferError. The callback, when set,
// sees every snapshot.
func (o *Orchestrator) WaitForCompletion(ctx context.Context, id string, callback func(Progress)) error {
	logger := logctx.LoggerFromContext(ctx).With("transfer_id", id)

	for {
		status, err := o.eng.Status(id)
		if err != nil {
			return fmt.Errorf("failed to snapshot transfer: %w", err)
		}

		p := FromStatus(status)

		if callback != nil {
			callback(p)
		}

		logger.Info(p.String())

		if p.State == StateError {
			return &TransferError{ID: id, Message: status.Err}
		}

		if status.Finished || status.Seeding {
			logger.Info("download complete", "name", p.Name)

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
}

// SeedToGoal keeps the transfer seeding until the goal's ratio or
// duration is reached, whichever comes first. Returns the last snapshot
// taken.
func (o *Orchestrator) SeedToGoal(ctx context.Context, id string, goal Goal, callback func(Progress)) (Progress, error) {
	logger := logctx.LoggerFromContext(ctx).With("transfer_id", id)

	logger.Info("seeding until goal", "target_ratio", goal.Ratio, "target_duration", goal.Duration.String())

	start := time.Now()

	for {
		status, err := o.eng.Status(id)
		if err != nil {
			return Progress{}, fmt.Errorf("failed to snapshot transfer: %w", err)
		}

		p := FromStatus(status)

		if callback != nil {
			callback(p)
		}

		logger.Info(p.String())

		if p.State == StateError {
			return p, &TransferError{ID: id, Message: status.Err}
		}

		elapsed := time.Since(start)
		if goal.Satisfied(p.Ratio, elapsed) {
			logger.Info("seeding goal reached", "ratio", p.Ratio, "elapsed", elapsed.String())

			return p, nil
		}

		select {
		case <-ctx.Done():
			return p, ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
}

func (o *Orchestrator) Pause(id string) error {
	return o.eng.Pause(id)
}

func (o *Orchestrator) Resume(id string) error {
	return o.eng.Resume(id)
}

func (o *Orchestrator) Remove(id string, deleteFiles bool) error {
	return o.eng.Remove(id, deleteFiles)
}

// Shutdown asks the engine to persist resume state for every live
// handle, waits a fixed grace period for that to flush, then releases
// everything. Safe to call more than once and with no live handles.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	logger := logctx.LoggerFromContext(ctx)

	if o.closed {
		return nil
	}

	o.closed = true

	handles := o.eng.Handles()

	for _, id := range handles {
		if err := o.eng.RequestResumePersist(id); err != nil {
			logger.Error("failed to request resume persist", "transfer_id", id, "err", err)
		}
	}

	if len(handles) > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(o.gracePeriod):
		}
	}

	if err := o.eng.Close(); err != nil {
		return fmt.Errorf("failed to close engine: %w", err)
	}

	logger.Info("transfer engine closed", "released_handles", len(handles))

	return nil
}

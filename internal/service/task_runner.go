package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/lease"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/metrics"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

var (
	// ErrAlreadyRunning signals lock contention. It is a no-op outcome, not
	// a failure; no task log row is written for it.
	ErrAlreadyRunning = errors.New("task already running")

	// ErrUnknownTask rejects task names outside the known set.
	ErrUnknownTask = errors.New("unknown task type")
)

const releaseTimeout = 5 * time.Second

// ChannelLister enumerates the channels a task should process.
type ChannelLister interface {
	ListSyncable(ctx context.Context) ([]model.Channel, error)
}

// TaskLogStore persists the task audit trail.
type TaskLogStore interface {
	Insert(ctx context.Context, tl *model.TaskLog) error
	Finish(ctx context.Context, tl *model.TaskLog) error
}

// ChannelSyncer is the ingestion capability the runner drives.
type ChannelSyncer interface {
	SyncChannel(ctx context.Context, channelID string) (*SyncResult, error)
	RefreshChannelStats(ctx context.Context, channelID string) error
}

// RollupEngine is the aggregation capability the daily task drives.
type RollupEngine interface {
	Backfill(ctx context.Context, channelID string, days int) (int, error)
}

// TaskRunner executes the named background tasks under a per-task-name
// lease. The lease is the only cross-process mutual-exclusion mechanism;
// there is no in-process fallback lock.
type TaskRunner struct {
	leases       lease.Store
	logs         TaskLogStore
	channels     ChannelLister
	ingest       ChannelSyncer
	rollup       RollupEngine
	lockTTL      time.Duration
	backfillDays int
	log          zerolog.Logger
}

func NewTaskRunner(leases lease.Store, logs TaskLogStore, channels ChannelLister, ingest ChannelSyncer, rollup RollupEngine, lockTTL time.Duration, backfillDays int, log zerolog.Logger) *TaskRunner {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	if backfillDays <= 0 {
		backfillDays = 1
	}
	return &TaskRunner{
		leases:       leases,
		logs:         logs,
		channels:     channels,
		ingest:       ingest,
		rollup:       rollup,
		lockTTL:      lockTTL,
		backfillDays: backfillDays,
		log:          log.With().Str("component", "task-runner").Logger(),
	}
}

// Run executes one task under its lease and returns the finalized log row.
// Task-body failures are reported through the log row, not the error return;
// the error return is reserved for ErrUnknownTask, ErrAlreadyRunning and
// infrastructure faults around the lease or the log store.
func (r *TaskRunner) Run(ctx context.Context, taskType model.TaskType) (*model.TaskLog, error) {
	if !model.ValidTaskType(taskType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, taskType)
	}

	key := lease.KeyPrefix + string(taskType)
	acquired, err := r.leases.Acquire(ctx, key, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !acquired {
		metrics.TaskRuns.WithLabelValues(string(taskType), "skipped").Inc()
		r.log.Info().Str("task", string(taskType)).Msg("lease held elsewhere, skipping")
		return nil, ErrAlreadyRunning
	}
	defer func() {
		// Release must succeed even when ctx was cancelled mid-task, so it
		// runs on a fresh context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if rerr := r.leases.Release(releaseCtx, key); rerr != nil {
			r.log.Error().Err(rerr).Str("key", key).Msg("lease release failed")
		}
	}()

	start := time.Now().UTC()
	tl := &model.TaskLog{
		ID:        uuid.NewString(),
		TaskType:  taskType,
		StartedAt: start,
	}
	if err := r.logs.Insert(ctx, tl); err != nil {
		return nil, fmt.Errorf("insert task log: %w", err)
	}

	r.log.Info().Str("task", string(taskType)).Msg("task started")
	success, message := r.execute(ctx, taskType, start.Add(r.lockTTL))

	finished := time.Now().UTC()
	tl.FinishedAt = &finished
	tl.Success = &success
	tl.Message = message
	tl.DurationMs = finished.Sub(start).Milliseconds()
	if err := r.logs.Finish(ctx, tl); err != nil {
		r.log.Error().Err(err).Str("task", string(taskType)).Msg("task log finalize failed")
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	metrics.TaskRuns.WithLabelValues(string(taskType), outcome).Inc()
	metrics.TaskDuration.WithLabelValues(string(taskType)).Observe(finished.Sub(start).Seconds())

	evt := r.log.Info()
	if !success {
		evt = r.log.Error()
	}
	evt.Str("task", string(taskType)).Bool("success", success).
		Int64("duration_ms", tl.DurationMs).Str("message", message).Msg("task finished")

	return tl, nil
}

// execute runs the task body across all syncable channels. Per-channel
// failures are caught and aggregated; the run is marked failed only when
// every unit failed or quota ended it early. The deadline is the lease TTL:
// once the lease is reclaimable the loop stops cooperatively before the next
// channel rather than overrunning.
func (r *TaskRunner) execute(ctx context.Context, taskType model.TaskType, deadline time.Time) (bool, string) {
	channels, err := r.channels.ListSyncable(ctx)
	if err != nil {
		return false, fmt.Sprintf("list channels: %v", err)
	}
	if len(channels) == 0 {
		return true, "no syncable channels"
	}

	var (
		processed int
		failed    []string
		notes     []string
	)

	for i, ch := range channels {
		if time.Now().After(deadline) {
			notes = append(notes, fmt.Sprintf("deadline reached after %d/%d channels", i, len(channels)))
			break
		}
		if ctx.Err() != nil {
			notes = append(notes, fmt.Sprintf("cancelled after %d/%d channels", i, len(channels)))
			break
		}

		note, err := r.runUnit(ctx, taskType, ch.ChannelID)
		if errors.Is(err, source.ErrQuotaExceeded) {
			// Everything written so far stays; the run itself is a failure
			// so the scheduler retries once quota resets.
			msg := fmt.Sprintf("quota exceeded after %d/%d channels", processed, len(channels))
			if len(failed) > 0 {
				msg += "; failed channels: " + strings.Join(failed, ", ")
			}
			return false, msg
		}
		if err != nil {
			r.log.Warn().Err(err).Str("task", string(taskType)).Str("channel", ch.ChannelID).
				Msg("channel failed, continuing")
			failed = append(failed, ch.ChannelID)
			continue
		}
		if note != "" {
			notes = append(notes, note)
		}
		processed++
	}

	switch {
	case processed == 0 && len(failed) > 0:
		return false, fmt.Sprintf("all %d channels failed: %s", len(failed), strings.Join(failed, ", "))
	case len(failed) > 0:
		msg := fmt.Sprintf("%d/%d channels processed; failed channels: %s",
			processed, len(channels), strings.Join(failed, ", "))
		if len(notes) > 0 {
			msg += "; " + strings.Join(notes, "; ")
		}
		return true, msg
	default:
		msg := fmt.Sprintf("%d channels processed", processed)
		if len(notes) > 0 {
			msg += "; " + strings.Join(notes, "; ")
		}
		return true, msg
	}
}

// runUnit executes the task body for a single channel.
func (r *TaskRunner) runUnit(ctx context.Context, taskType model.TaskType, channelID string) (note string, err error) {
	switch taskType {
	case model.TaskVideoSync:
		res, err := r.ingest.SyncChannel(ctx, channelID)
		if err != nil {
			return "", err
		}
		if len(res.FailedVideoIDs) > 0 {
			note = fmt.Sprintf("channel %s: %d/%d videos failed (%s)",
				channelID, len(res.FailedVideoIDs), res.VideosScanned,
				strings.Join(res.FailedVideoIDs, ", "))
		}
		return note, nil

	case model.TaskChannelHourly:
		return "", r.ingest.RefreshChannelStats(ctx, channelID)

	case model.TaskChannelDaily:
		if err := r.ingest.RefreshChannelStats(ctx, channelID); err != nil {
			return "", err
		}
		_, err := r.rollup.Backfill(ctx, channelID, r.backfillDays)
		return "", err

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTask, taskType)
	}
}

package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/config"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/service"
)

// TaskTrigger is what the scheduler fires on each tick. Satisfied by
// service.TaskRunner.
type TaskTrigger interface {
	Run(ctx context.Context, taskType model.TaskType) (*model.TaskLog, error)
}

// Scheduler fires the background tasks on their cron cadence. Every instance
// runs its own cron; the task lease decides which instance actually executes,
// so overlapping ticks across replicas degrade to skips, not duplicate work.
type Scheduler struct {
	cron   *cron.Cron
	runner TaskTrigger
	log    zerolog.Logger
}

func New(runner TaskTrigger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register wires the three task cadences from config. Returns an error when a
// cron expression does not parse; a misconfigured schedule should fail startup,
// not silently never fire.
func (s *Scheduler) Register(cfg *config.Config) error {
	entries := []struct {
		spec string
		task model.TaskType
	}{
		{cfg.CronVideoSync, model.TaskVideoSync},
		{cfg.CronChannelHourly, model.TaskChannelHourly},
		{cfg.CronChannelDaily, model.TaskChannelDaily},
	}

	for _, e := range entries {
		task := e.task
		if _, err := s.cron.AddFunc(e.spec, func() { s.fire(task) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", task, e.spec, err)
		}
		s.log.Info().Str("task", string(task)).Str("cron", e.spec).Msg("task scheduled")
	}
	return nil
}

func (s *Scheduler) fire(task model.TaskType) {
	tl, err := s.runner.Run(context.Background(), task)
	if errors.Is(err, service.ErrAlreadyRunning) {
		s.log.Info().Str("task", string(task)).Msg("tick skipped, task already running")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("task", string(task)).Msg("scheduled run failed to start")
		return
	}
	if tl.Success != nil && !*tl.Success {
		s.log.Warn().Str("task", string(task)).Str("message", tl.Message).Msg("scheduled run finished with failure")
	}
}

// Start begins firing ticks. Jobs scheduled before Start are preserved.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop halts tick dispatch and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

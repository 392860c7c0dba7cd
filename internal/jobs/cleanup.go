package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/repository"
)

// CleanupJob periodically closes abandoned temp-log sessions and prunes old
// activity rows.
type CleanupJob struct {
	tempLogRepo       repository.TempLogRepository
	activityRepo      repository.ActivityLogRepository
	interval          time.Duration
	sessionMaxAge     time.Duration
	activityRetention time.Duration
	done              chan struct{}
}

func NewCleanupJob(
	tempLogRepo repository.TempLogRepository,
	activityRepo repository.ActivityLogRepository,
	interval time.Duration,
	sessionMaxAge time.Duration,
	activityRetention time.Duration,
) *CleanupJob {
	return &CleanupJob{
		tempLogRepo:       tempLogRepo,
		activityRepo:      activityRepo,
		interval:          interval,
		sessionMaxAge:     sessionMaxAge,
		activityRetention: activityRetention,
		done:              make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	j.runCleanup(ctx, "stale temp sessions", func(ctx context.Context) (int64, error) {
		return j.tempLogRepo.CloseStaleSessions(ctx, now.Add(-j.sessionMaxAge))
	})
	j.runCleanup(ctx, "old activity rows", func(ctx context.Context) (int64, error) {
		return j.activityRepo.DeleteOlderThan(ctx, now.Add(-j.activityRetention))
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}

// Package scheduler runs the periodic expiry sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/service"
)

// SweepJobName is also the distributed lock key of the sweep job.
const SweepJobName = "expiry-sweep"

// Sweeper is the work the scheduler triggers.
type Sweeper interface {
	RunOnce(ctx context.Context) (service.SweepResult, error)
}

// StartSweeper schedules sweeper.RunOnce every interval and starts the
// scheduler.  Runs never overlap within a process; a run still going when
// the next tick fires pushes that tick back.  When rdb is non-nil the job
// also takes a Redis lock so that one replica sweeps per tick.  The caller
// must Shutdown the returned scheduler.
func StartSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, clock clockwork.Clock, rdb *redis.Client) (gocron.Scheduler, error) {
	opts := []gocron.SchedulerOption{gocron.WithClock(clock)}
	if rdb != nil {
		opts = append(opts, gocron.WithDistributedLocker(NewRedisLocker(rdb, interval)))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := sweeper.RunOnce(ctx); err != nil {
				logrus.WithError(err).Error("[CRON] expiry sweep failed")
			}
		}),
		gocron.WithName(SweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	logrus.WithFields(logrus.Fields{"interval": interval, "distributed": rdb != nil}).Info("[CRON] expiry sweeper started")
	return s, nil
}

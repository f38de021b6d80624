// Package river runs the periodic tier sweep on the River job queue.
package river

import (
	"context"
	"time"

	"github.com/riverqueue/river"
)

// SweepArgs is the payload of the periodic tier sweep. It carries no data;
// each run evaluates every participant.
type SweepArgs struct{}

func (SweepArgs) Kind() string { return "rank_sweep" }

// InsertOpts keeps at most one sweep queued at a time.
func (SweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByPeriod: time.Minute},
	}
}

// Sweeper re-evaluates every participant's tier.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	sweeper Sweeper
}

func NewSweepWorker(sweeper Sweeper) *SweepWorker {
	return &SweepWorker{sweeper: sweeper}
}

func (w *SweepWorker) Work(ctx context.Context, _ *river.Job[SweepArgs]) error {
	_, err := w.sweeper.Sweep(ctx)
	return err
}

// Timeout bounds one sweep run.
func (w *SweepWorker) Timeout(*river.Job[SweepArgs]) time.Duration {
	return 30 * time.Minute
}

// PeriodicSweep schedules the sweep every interval.
func PeriodicSweep(interval time.Duration) *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return SweepArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: false},
	)
}

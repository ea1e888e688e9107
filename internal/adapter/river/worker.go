package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// StatusChangeWorker processes status change jobs from the River queue.
// For now it records the change in the log; future versions will dispatch
// to notifications or downstream billing. Forced transitions are logged at
// warn level so operator overrides leave an audit trail.
type StatusChangeWorker struct {
	river.WorkerDefaults[StatusChangeJobArgs]
}

// Work processes a single status change job.
func (w *StatusChangeWorker) Work(ctx context.Context, job *river.Job[StatusChangeJobArgs]) error {
	level := slog.LevelInfo
	if job.Args.Forced {
		level = slog.LevelWarn
	}
	slog.Default().Log(ctx, level, "tenancy status changed",
		"tenancy_id", job.Args.TenancyID,
		"property_id", job.Args.PropertyID,
		"from", job.Args.Previous,
		"to", job.Args.Next,
		"actor_id", job.Args.ActorID,
		"forced", job.Args.Forced,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

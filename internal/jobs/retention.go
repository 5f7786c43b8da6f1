// Package jobs contains the River background jobs for the forms API.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"cleanedge.io/forms/internal/pkg/logger"
)

// DefaultSubmissionRetention is how long stored submissions are kept when
// no retention period is configured.
const DefaultSubmissionRetention = 365 * 24 * time.Hour

// retentionTables are the submission tables the purge sweeps. Newsletter
// subscribers are deliberately excluded: a subscription is standing consent,
// not a one-shot inquiry.
var retentionTables = []string{
	"contact_submissions",
	"quote_requests",
	"career_applications",
}

// SubmissionRetentionArgs is a periodic maintenance job that removes
// stored submissions past the retention period.
type SubmissionRetentionArgs struct{}

// Kind returns the job kind identifier for the periodic purge.
func (SubmissionRetentionArgs) Kind() string { return "submission_retention" }

// InsertOpts ensures at most one purge job is enqueued within the same day.
func (SubmissionRetentionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// SubmissionRetentionWorker deletes submissions older than the configured
// retention duration.
type SubmissionRetentionWorker struct {
	river.WorkerDefaults[SubmissionRetentionArgs]
	pool      *pgxpool.Pool
	retention time.Duration
}

// NewSubmissionRetentionWorker creates a purge worker. Non-positive
// retention falls back to the one-year default.
func NewSubmissionRetentionWorker(pool *pgxpool.Pool, retention time.Duration) *SubmissionRetentionWorker {
	if retention <= 0 {
		retention = DefaultSubmissionRetention
	}
	return &SubmissionRetentionWorker{
		pool:      pool,
		retention: retention,
	}
}

// Work removes expired submission rows from every retained table.
func (w *SubmissionRetentionWorker) Work(ctx context.Context, _ *river.Job[SubmissionRetentionArgs]) error {
	if w == nil || w.pool == nil {
		return fmt.Errorf("submission retention worker is not initialized")
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	var total int64
	for _, table := range retentionTables {
		tag, err := w.pool.Exec(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE created_at < $1", table), cutoff)
		if err != nil {
			return fmt.Errorf("purge %s before %s: %w", table, cutoff.Format(time.RFC3339), err)
		}
		total += tag.RowsAffected()
	}

	logger.Info("submission retention completed",
		zap.Int64("deleted_rows", total),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("retention", w.retention),
	)
	return nil
}

// PeriodicJobs returns the periodic job schedule for the forms API.
func PeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return SubmissionRetentionArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/btlz/tenx/backend/internal/collector"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// SnapshotCollectionJob snapshots every marketplace feed into the
// daily tables at end of day, marketplace time. The stored rows are
// what checklist builds trust first, so this job is what turns live
// state into durable history.
type SnapshotCollectionJob struct {
	collector *collector.Collector
	logger    *logger.Logger
}

func NewSnapshotCollectionJob(col *collector.Collector, log *logger.Logger) *SnapshotCollectionJob {
	return &SnapshotCollectionJob{
		collector: col,
		logger:    log,
	}
}

// Name returns the job name.
func (j *SnapshotCollectionJob) Name() string {
	return "snapshot_collection"
}

// Schedule returns the cron schedule (every day at 23:30).
func (j *SnapshotCollectionJob) Schedule() string {
	return "0 30 23 * * *"
}

// Run collects today's snapshots for the whole catalog.
func (j *SnapshotCollectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled snapshot collection")

	day := time.Now().Format("2006-01-02")
	res, err := j.collector.Collect(ctx, nil, day)
	if err != nil {
		return fmt.Errorf("collect snapshots: %w", err)
	}
	if res.Skipped {
		j.logger.Info("Snapshot collection skipped, another instance holds the lock")
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"day":    res.Day,
		"stocks": res.Stocks,
		"adv":    res.Adv,
	}).Info("Scheduled snapshot collection completed")
	return nil
}

// IntradayRefreshJob re-collects the current day a few times during
// business hours so stock levels and adv spend stay fresh between the
// end-of-day runs. Upserts make the re-collection idempotent.
type IntradayRefreshJob struct {
	collector *collector.Collector
	logger    *logger.Logger
}

func NewIntradayRefreshJob(col *collector.Collector, log *logger.Logger) *IntradayRefreshJob {
	return &IntradayRefreshJob{
		collector: col,
		logger:    log,
	}
}

// Name returns the job name.
func (j *IntradayRefreshJob) Name() string {
	return "intraday_refresh"
}

// Schedule returns the cron schedule (every 4 hours from 08:00 to
// 20:00).
func (j *IntradayRefreshJob) Schedule() string {
	return "0 0 8-20/4 * * *"
}

// Run refreshes today's snapshots.
func (j *IntradayRefreshJob) Run(ctx context.Context) error {
	day := time.Now().Format("2006-01-02")
	if _, err := j.collector.Collect(ctx, nil, day); err != nil {
		return fmt.Errorf("refresh snapshots: %w", err)
	}
	return nil
}

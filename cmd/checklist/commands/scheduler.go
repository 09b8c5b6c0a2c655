package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/btlz/tenx/backend/internal/scheduler"
	"github.com/btlz/tenx/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the collection scheduler",
	Long: `Runs the scheduler daemon with the registered collection jobs:

  snapshot_collection - nightly full snapshot collection (23:30)
  intraday_refresh    - intraday refresh every 4 hours (08:00-20:00)

Example:
  go run ./cmd/checklist scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.log

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewSnapshotCollectionJob(rt.collector, log)); err != nil {
		return fmt.Errorf("register snapshot collection job: %w", err)
	}
	if err := sched.AddJob(jobs.NewIntradayRefreshJob(rt.collector, log)); err != nil {
		return fmt.Errorf("register intraday refresh job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	log.Info("Scheduler started")
	fmt.Println("Scheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Scheduler stopped")
	return nil
}

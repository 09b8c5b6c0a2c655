package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/btlz/tenx/backend/internal/api"
	"github.com/btlz/tenx/backend/internal/api/handlers"
	"github.com/btlz/tenx/backend/internal/scheduler"
	"github.com/btlz/tenx/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health        - Health check
  POST /v1/dataset    - Build a checklist dataset
  POST /api/collect   - Trigger snapshot collection
  GET  /api/jobs      - Scheduled job statistics

Example:
  go run ./cmd/checklist api
  go run ./cmd/checklist api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "run the collection scheduler in-process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	log := rt.log
	log.WithFields(map[string]interface{}{
		"port": rt.cfg.Port,
		"env":  rt.cfg.Env,
	}).Info("Initializing API server")

	// Optional in-process scheduler
	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewSnapshotCollectionJob(rt.collector, log)); err != nil {
			return fmt.Errorf("register snapshot collection job: %w", err)
		}
		if err := sched.AddJob(jobs.NewIntradayRefreshJob(rt.collector, log)); err != nil {
			return fmt.Errorf("register intraday refresh job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Handlers and router
	datasetHandler := handlers.NewDatasetHandler(rt.service, log)
	collectHandler := handlers.NewCollectHandler(rt.collector, log)
	statusHandler := handlers.NewStatusHandler(sched, log)

	router := api.NewRouter(datasetHandler, collectHandler, statusHandler, log)
	server := api.New(rt.cfg, log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

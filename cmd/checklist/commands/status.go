package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check service dependencies",
	Long: `Checks connectivity to the configured dependencies and prints a
short summary: PostgreSQL health and pool stats, Redis availability.

Example:
  go run ./cmd/checklist status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Database")
	health, err := rt.db.HealthCheck(ctx)
	if err != nil || !health.Healthy {
		fmt.Printf("  status:   unreachable (%v)\n", err)
	} else {
		fmt.Printf("  status:   ok (%v)\n", health.ResponseTime)
		fmt.Printf("  pool:     %d total / %d idle / %d acquired\n",
			health.Stats.TotalConns, health.Stats.IdleConns, health.Stats.AcquiredConns)
	}

	fmt.Println("Redis")
	if rt.redis == nil || !rt.redis.Enabled() {
		fmt.Println("  status:   disabled")
	} else if err := rt.redis.Ping(ctx); err != nil {
		fmt.Printf("  status:   unreachable (%v)\n", err)
	} else {
		fmt.Println("  status:   ok")
	}

	fmt.Printf("Environment: %s, port %s\n", rt.cfg.Env, rt.cfg.Port)
	return nil
}

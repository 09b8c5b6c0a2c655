package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one snapshot collection",
	Long: `Collects daily snapshots (stocks, funnel, prices, advertising,
localization, commissions) for the given day and stores them.

Without --nm-ids the whole seller catalog is collected.

Example:
  go run ./cmd/checklist collect
  go run ./cmd/checklist collect --day 2025-05-01 --nm-ids 12345,67890`,
	RunE: runCollect,
}

var (
	collectNmIDs []int64
	collectDay   string
)

func init() {
	rootCmd.AddCommand(collectCmd)

	// Flags
	collectCmd.Flags().Int64SliceVar(&collectNmIDs, "nm-ids", nil, "SKU ids to collect (default: whole catalog)")
	collectCmd.Flags().StringVar(&collectDay, "day", "", "day to collect, YYYY-MM-DD (default: today)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	if collectDay != "" {
		if _, err := time.Parse("2006-01-02", collectDay); err != nil {
			return fmt.Errorf("invalid --day %q (expected YYYY-MM-DD)", collectDay)
		}
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	res, err := rt.collector.Collect(ctx, collectNmIDs, collectDay)
	if err != nil {
		return fmt.Errorf("collect snapshots: %w", err)
	}

	if res.Skipped {
		fmt.Println("Collection already running elsewhere, skipped")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build a checklist dataset",
	Long: `Builds the per-SKU daily checklist dataset and writes it to
stdout as JSON.

Without --date-to today is used; without --date-from the range covers
the trailing 30 days.

Example:
  go run ./cmd/checklist dataset --nm-ids 12345
  go run ./cmd/checklist dataset --nm-ids 12345,67890 --date-from 2025-05-01 --date-to 2025-05-31`,
	RunE: runDataset,
}

var (
	datasetNmIDs    []int64
	datasetDateFrom string
	datasetDateTo   string
	datasetOut      string
)

func init() {
	rootCmd.AddCommand(datasetCmd)

	// Flags
	datasetCmd.Flags().Int64SliceVar(&datasetNmIDs, "nm-ids", nil, "SKU ids to build (default: whole catalog)")
	datasetCmd.Flags().StringVar(&datasetDateFrom, "date-from", "", "range start, YYYY-MM-DD")
	datasetCmd.Flags().StringVar(&datasetDateTo, "date-to", "", "range end, YYYY-MM-DD")
	datasetCmd.Flags().StringVar(&datasetOut, "out", "", "write JSON to file instead of stdout")
}

func runDataset(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	started := time.Now()
	rows, err := rt.service.BuildChecklist(ctx, datasetNmIDs, datasetDateFrom, datasetDateTo)
	if err != nil {
		return fmt.Errorf("build checklist: %w", err)
	}

	out := os.Stdout
	if datasetOut != "" {
		f, err := os.Create(datasetOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	rt.log.WithFields(map[string]interface{}{
		"rows":        len(rows),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Dataset build finished")
	return nil
}

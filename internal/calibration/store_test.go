package calibration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btlz/tenx/backend/pkg/config"
	"github.com/btlz/tenx/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

const sampleFile = `{
	"meta": {"date_from": "2025-05-01", "date_to": "2025-05-31"},
	"overrides": {
		"12345": {
			"sebes_rub_unit": 450.5,
			"adv_sum_total": 12000,
			"tax_rate_hint": 0.07,
			"perc_mp_hint": 0.245,
			"plan_row": {"buyout_percent": 0.91, "sebes_rub": 450.5}
		}
	}
}`

func TestStore_Snapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	writeFile(t, path, sampleFile)

	store := NewStore(path, true, testLogger())
	snap := store.Snapshot()

	if snap.Empty() {
		t.Fatal("Expected non-empty snapshot")
	}

	item, ok := snap.Item(12345)
	if !ok {
		t.Fatal("Expected item 12345")
	}
	if item.SebesRubUnit != 450.5 {
		t.Errorf("SebesRubUnit = %v, want 450.5", item.SebesRubUnit)
	}
	if item.PlanRow["buyout_percent"] != 0.91 {
		t.Errorf("PlanRow[buyout_percent] = %v, want 0.91", item.PlanRow["buyout_percent"])
	}

	if _, ok := snap.Item(999); ok {
		t.Error("Expected no item for unknown SKU")
	}
}

func TestStore_WindowMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	writeFile(t, path, sampleFile)

	snap := NewStore(path, true, testLogger()).Snapshot()

	if !snap.MatchesWindow("2025-05-01", "2025-05-31") {
		t.Error("Expected exact window to match")
	}
	if snap.MatchesWindow("2025-05-01", "2025-05-30") {
		t.Error("Expected shifted window to not match")
	}
	if snap.MatchesWindow("2025-05-02", "2025-05-31") {
		t.Error("Expected shifted start to not match")
	}
}

func TestSnapshot_ScalarsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	writeFile(t, path, sampleFile)

	snap := NewStore(path, true, testLogger()).Snapshot()
	scalars := snap.ScalarsOnly()

	item, ok := scalars.Item(12345)
	if !ok {
		t.Fatal("Expected item 12345 to survive")
	}
	if item.SebesRubUnit != 450.5 {
		t.Errorf("SebesRubUnit = %v, want 450.5", item.SebesRubUnit)
	}
	if item.TaxRateHint != 0.07 {
		t.Errorf("TaxRateHint = %v, want 0.07", item.TaxRateHint)
	}
	if item.PlanRow != nil {
		t.Errorf("Expected plan row to be stripped, got %v", item.PlanRow)
	}

	// The original snapshot keeps its plan rows.
	orig, _ := snap.Item(12345)
	if orig.PlanRow["buyout_percent"] != 0.91 {
		t.Error("Expected ScalarsOnly to not mutate the source snapshot")
	}

	var nilSnap *Snapshot
	if got := nilSnap.ScalarsOnly(); !got.Empty() {
		t.Error("Expected nil snapshot to yield an empty copy")
	}
}

func TestStore_MtimeReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	writeFile(t, path, sampleFile)

	store := NewStore(path, true, testLogger())
	first := store.Snapshot()
	if _, ok := first.Item(12345); !ok {
		t.Fatal("Expected item 12345 in first snapshot")
	}

	// Same mtime: cached snapshot is reused
	if again := store.Snapshot(); again != first {
		t.Error("Expected cached snapshot while mtime is unchanged")
	}

	// Rewrite with a different item and bump mtime
	writeFile(t, path, `{
		"meta": {"date_from": "2025-06-01", "date_to": "2025-06-30"},
		"overrides": {"777": {"sebes_rub_unit": 100}}
	}`)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	reloaded := store.Snapshot()
	if _, ok := reloaded.Item(777); !ok {
		t.Error("Expected reloaded snapshot to carry the new item")
	}
	if _, ok := reloaded.Item(12345); ok {
		t.Error("Expected old item to be gone after reload")
	}
}

func TestStore_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"), true, testLogger())
	snap := store.Snapshot()
	if !snap.Empty() {
		t.Error("Expected empty snapshot for missing file")
	}
}

func TestStore_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	writeFile(t, path, sampleFile)

	store := NewStore(path, false, testLogger())
	if snap := store.Snapshot(); !snap.Empty() {
		t.Error("Expected empty snapshot when disabled")
	}
}

func TestStore_BrokenFileKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	writeFile(t, path, sampleFile)

	store := NewStore(path, true, testLogger())
	first := store.Snapshot()
	if first.Empty() {
		t.Fatal("Expected first load to succeed")
	}

	writeFile(t, path, `{not json`)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	snap := store.Snapshot()
	if _, ok := snap.Item(12345); !ok {
		t.Error("Expected last good snapshot to survive a broken rewrite")
	}
}

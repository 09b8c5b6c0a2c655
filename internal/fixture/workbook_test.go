package fixture

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/btlz/tenx/backend/pkg/config"
	"github.com/btlz/tenx/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetUnit)
	unitRows := [][]interface{}{
		{"nm_id", "date", "sebes_rub", "perc_mp", "buyout_percent", "expenses"},
		{12345, "2025-05-01", 450.5, 0.245, 0.91, 120},
		{12345, "2025-04-01", 440, 0.245, 0.90, 110}, // older row must lose
		{777, "", 100, "", "", ""},
	}
	for i, row := range unitRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetUnit, cell, &row); err != nil {
			t.Fatalf("set UNIT row: %v", err)
		}
	}

	if _, err := f.NewSheet(sheetUnitLog); err != nil {
		t.Fatalf("new unit_log sheet: %v", err)
	}
	logRows := [][]interface{}{
		{"nm_id", "date", "expenses"},
		{12345, "2025-05-02", 118.5},
		{12345, "2025-05-01", 120},
		{12345, "", 99}, // dateless rows are dropped
	}
	for i, row := range logRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetUnitLog, cell, &row); err != nil {
			t.Fatalf("set unit_log row: %v", err)
		}
	}

	if _, err := f.NewSheet(sheetChecklist); err != nil {
		t.Fatalf("new checklist sheet: %v", err)
	}
	checklistRows := [][]interface{}{
		{"nm_id", "date", "buyout_percent_day", "orders_dyn", "stocks"},
		{12345, "2025-05-01", 91, 1.428571, 40}, // 91 is a percent, not a share
	}
	for i, row := range checklistRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetChecklist, cell, &row); err != nil {
			t.Fatalf("set checklist row: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "sheet_export.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestStore_Snapshot(t *testing.T) {
	path := writeWorkbook(t)
	wb := NewStore(path, true, testLogger()).Snapshot()

	if wb.Empty() {
		t.Fatal("Expected non-empty workbook")
	}

	unit, ok := wb.UnitSettings[12345]
	if !ok {
		t.Fatal("Expected UNIT row for 12345")
	}
	if unit.Date != "2025-05-01" {
		t.Errorf("Expected latest dated UNIT row to win, got date %q", unit.Date)
	}
	if unit.Values["sebes_rub"] != 450.5 {
		t.Errorf("sebes_rub = %v, want 450.5", unit.Values["sebes_rub"])
	}
	if unit.Values["buyout_percent"] != 0.91 {
		t.Errorf("buyout_percent = %v, want 0.91", unit.Values["buyout_percent"])
	}

	if _, ok := wb.UnitSettings[777]; !ok {
		t.Error("Expected dateless UNIT row to load")
	}
}

func TestStore_UnitLog(t *testing.T) {
	path := writeWorkbook(t)
	wb := NewStore(path, true, testLogger()).Snapshot()

	days, ok := wb.UnitLog[12345]
	if !ok {
		t.Fatal("Expected unit log for 12345")
	}
	if days["2025-05-02"] != 118.5 {
		t.Errorf("unit log 2025-05-02 = %v, want 118.5", days["2025-05-02"])
	}
	if len(days) != 2 {
		t.Errorf("Expected dateless row to be dropped, got %d entries", len(days))
	}

	dates := wb.UnitLogDates[12345]
	if len(dates) != 2 || dates[0] != "2025-05-01" || dates[1] != "2025-05-02" {
		t.Errorf("Expected sorted unit log dates, got %v", dates)
	}
}

func TestStore_ChecklistSnapshot(t *testing.T) {
	path := writeWorkbook(t)
	wb := NewStore(path, true, testLogger()).Snapshot()

	row, ok := wb.ChecklistRow(12345, "2025-05-01")
	if !ok {
		t.Fatal("Expected checklist snapshot row")
	}
	if row["buyout_percent_day"] != 0.91 {
		t.Errorf("Expected percent normalization to share, got %v", row["buyout_percent_day"])
	}
	if row["stocks"] != 40 {
		t.Errorf("stocks = %v, want 40", row["stocks"])
	}

	if _, ok := wb.ChecklistRow(12345, "2025-05-09"); ok {
		t.Error("Expected no row for unknown day")
	}
}

func TestStore_ChecklistDisabled(t *testing.T) {
	path := writeWorkbook(t)
	wb := NewStore(path, false, testLogger()).Snapshot()

	if _, ok := wb.ChecklistRow(12345, "2025-05-01"); ok {
		t.Error("Expected checklist sheet to be skipped when disabled")
	}
	if len(wb.UnitSettings) == 0 {
		t.Error("Expected UNIT sheet to still load")
	}
}

func TestStore_MissingFile(t *testing.T) {
	wb := NewStore(filepath.Join(t.TempDir(), "nope.xlsx"), true, testLogger()).Snapshot()
	if !wb.Empty() {
		t.Error("Expected empty workbook for missing file")
	}
}

func TestYmd(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-05-01", "2025-05-01"},
		{"2025-05-01 00:00:00", "2025-05-01"},
		{"05-01-25", "2025-05-01"},
		{"01.05.2025", "2025-05-01"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ymd(tt.in); got != tt.want {
			t.Errorf("ymd(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

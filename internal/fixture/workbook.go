package fixture

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/btlz/tenx/backend/pkg/logger"
)

// Sheet names in the parity workbook exported by the reference system.
const (
	sheetUnit      = "UNIT"
	sheetUnitLog   = "unit_log"
	sheetChecklist = "checklist"
)

// unitFields are the UNIT sheet columns carried into per-SKU settings.
var unitFields = []string{
	"sebes_rub",
	"markirovka_rub",
	"perc_mp",
	"delivery_mp_with_buyout_rub",
	"hranenie_rub",
	"acquiring_perc",
	"tax_total_perc",
	"additional_costs",
	"priemka_rub",
	"spp",
	"discounted_price",
	"discounted_price_with_spp",
	"buyout_percent",
	"buyout_percent_special",
	"expenses",
}

// checklistFields are the checklist sheet columns usable as snapshot
// overrides during parity runs.
var checklistFields = []string{
	"buyout_percent_day",
	"buyout_percent_month",
	"orders_dyn",
	"orders_count_local",
	"stocks_total",
	"expected_buyouts_dyn",
	"expected_buyouts_sum_rub",
	"profit_without_adv",
	"profit_with_adv",
	"avg_price_with_spp",
	"adv_sum",
	"adv_percent",
	"orders_sum_rub",
	"orders_count",
	"buyouts_sum_rub",
	"buyouts_count",
	"stocks",
	"stocks_enough_for",
	"stocks_enough_for_with_buyout_perc",
	"spp",
}

// UnitRow is the latest UNIT sheet row for one SKU.
type UnitRow struct {
	Date   string
	Values map[string]float64
}

// Workbook is one immutable load of the parity workbook.
type Workbook struct {
	UnitSettings map[int64]UnitRow
	UnitLog      map[int64]map[string]float64
	UnitLogDates map[int64][]string
	Checklist    map[int64]map[string]map[string]float64
}

func emptyWorkbook() *Workbook {
	return &Workbook{
		UnitSettings: map[int64]UnitRow{},
		UnitLog:      map[int64]map[string]float64{},
		UnitLogDates: map[int64][]string{},
		Checklist:    map[int64]map[string]map[string]float64{},
	}
}

// Empty reports whether the workbook carries no fixture data.
func (w *Workbook) Empty() bool {
	return w == nil || (len(w.UnitSettings) == 0 && len(w.UnitLog) == 0 && len(w.Checklist) == 0)
}

// ChecklistRow returns the snapshot override row for one (SKU, day).
func (w *Workbook) ChecklistRow(nmID int64, date string) (map[string]float64, bool) {
	if w == nil {
		return nil, false
	}
	days, ok := w.Checklist[nmID]
	if !ok {
		return nil, false
	}
	row, ok := days[date]
	return row, ok
}

// Store loads the parity workbook, re-reading it only when the file
// mtime changes. A missing path disables the fixture entirely.
type Store struct {
	path          string
	withChecklist bool
	logger        *logger.Logger

	mu     sync.Mutex
	mtime  time.Time
	cached *Workbook
}

// NewStore creates a workbook store for the given path.
func NewStore(path string, withChecklist bool, log *logger.Logger) *Store {
	return &Store{
		path:          path,
		withChecklist: withChecklist,
		logger:        log,
	}
}

// Snapshot returns the current workbook, reloading on mtime change.
func (s *Store) Snapshot() *Workbook {
	if s.path == "" {
		return emptyWorkbook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if s.cached == nil {
			s.cached = emptyWorkbook()
		}
		return s.cached
	}
	defer f.Close()

	info, statErr := fileModTime(s.path)
	if statErr == nil && s.cached != nil && info.Equal(s.mtime) {
		return s.cached
	}

	wb, err := parse(f, s.withChecklist)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Fixture workbook load failed")
		if s.cached == nil {
			s.cached = emptyWorkbook()
		}
		return s.cached
	}

	if statErr == nil {
		s.mtime = info
	}
	s.cached = wb
	s.logger.WithFields(map[string]interface{}{
		"path":           s.path,
		"unit_rows":      len(wb.UnitSettings),
		"unit_log_rows":  len(wb.UnitLog),
		"checklist_rows": len(wb.Checklist),
	}).Info("Fixture workbook loaded")

	return s.cached
}

func parse(f *excelize.File, withChecklist bool) (*Workbook, error) {
	wb := emptyWorkbook()

	if err := parseUnit(f, wb); err != nil {
		return nil, err
	}
	if err := parseUnitLog(f, wb); err != nil {
		return nil, err
	}
	if withChecklist {
		if err := parseChecklist(f, wb); err != nil {
			return nil, err
		}
	}

	for _, dates := range wb.UnitLogDates {
		sort.Strings(dates)
	}

	return wb, nil
}

// parseUnit reads the UNIT sheet: one row per SKU, technical headers
// on row 1. When several rows exist for one SKU the latest dated row
// wins.
func parseUnit(f *excelize.File, wb *Workbook) error {
	rows, err := f.GetRows(sheetUnit)
	if err != nil || len(rows) < 2 {
		return nil // sheet absent or empty
	}

	col := headerIndex(rows[0])
	nmIdx, ok := col["nm_id"]
	if !ok {
		return fmt.Errorf("UNIT sheet has no nm_id column")
	}
	dtIdx, hasDate := col["date"]

	for _, row := range rows[1:] {
		nmID := cellInt(row, nmIdx)
		if nmID == 0 {
			continue
		}
		date := ""
		if hasDate {
			date = ymd(cell(row, dtIdx))
		}

		if current, exists := wb.UnitSettings[nmID]; exists && date != "" && current.Date >= date {
			continue
		}

		values := make(map[string]float64, len(unitFields))
		for _, field := range unitFields {
			if idx, ok := col[field]; ok {
				values[field] = cellFloat(row, idx)
			}
		}
		wb.UnitSettings[nmID] = UnitRow{Date: date, Values: values}
	}

	return nil
}

// parseUnitLog reads per-day computed per-unit expense totals.
func parseUnitLog(f *excelize.File, wb *Workbook) error {
	rows, err := f.GetRows(sheetUnitLog)
	if err != nil || len(rows) < 2 {
		return nil
	}

	col := headerIndex(rows[0])
	nmIdx, okNm := col["nm_id"]
	dtIdx, okDt := col["date"]
	expIdx, okExp := col["expenses"]
	if !okNm || !okDt || !okExp {
		return nil
	}

	for _, row := range rows[1:] {
		nmID := cellInt(row, nmIdx)
		if nmID == 0 {
			continue
		}
		date := ymd(cell(row, dtIdx))
		if date == "" {
			continue
		}

		if wb.UnitLog[nmID] == nil {
			wb.UnitLog[nmID] = map[string]float64{}
		}
		wb.UnitLog[nmID][date] = cellFloat(row, expIdx)
		wb.UnitLogDates[nmID] = append(wb.UnitLogDates[nmID], date)
	}

	return nil
}

// parseChecklist reads reference checklist rows for snapshot
// overrides. Rate fields above 1.5 are percents and normalize to
// shares.
func parseChecklist(f *excelize.File, wb *Workbook) error {
	rows, err := f.GetRows(sheetChecklist)
	if err != nil || len(rows) < 2 {
		return nil
	}

	col := headerIndex(rows[0])
	nmIdx, okNm := col["nm_id"]
	dtIdx, okDt := col["date"]
	if !okNm || !okDt {
		return nil
	}

	for _, row := range rows[1:] {
		nmID := cellInt(row, nmIdx)
		if nmID == 0 {
			continue
		}
		date := ymd(cell(row, dtIdx))
		if date == "" {
			continue
		}

		payload := make(map[string]float64, len(checklistFields))
		for _, field := range checklistFields {
			idx, ok := col[field]
			if !ok {
				continue
			}
			val := cellFloat(row, idx)
			if (field == "buyout_percent_day" || field == "buyout_percent_month") && val > 1.5 {
				val = val / 100.0
			}
			payload[field] = val
		}

		if wb.Checklist[nmID] == nil {
			wb.Checklist[nmID] = map[string]map[string]float64{}
		}
		wb.Checklist[nmID][date] = payload
	}

	return nil
}

func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for idx, name := range header {
		name = strings.TrimSpace(name)
		if name != "" {
			col[name] = idx
		}
	}
	return col
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func cellFloat(row []string, idx int) float64 {
	text := strings.TrimSpace(cell(row, idx))
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", ".")
	if text == "" {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}

func cellInt(row []string, idx int) int64 {
	return int64(cellFloat(row, idx))
}

// ymd normalizes a workbook cell into a YYYY-MM-DD key. Cells come
// back already formatted by the sheet's number format, so several
// layouts show up in practice.
func ymd(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	layouts := []string{"2006-01-02", "2006-01-02 15:04:05", "01-02-06", "2006/01/02", "02.01.2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if len(text) >= 10 {
		return text[:10]
	}
	return text
}

func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

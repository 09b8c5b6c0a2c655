package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/btlz/tenx/backend/pkg/logger"
)

// Meta describes the exact reconciliation window the override file was
// built against. Period-level hints apply only when a checklist run
// asks for the same window.
type Meta struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// Item holds per-SKU calibration hints extracted from a reference
// workbook run. The scalar hints are per-unit values and apply to any
// window; PlanRow mirrors the saved plan of the captured window and is
// only valid for it.
type Item struct {
	SebesRubUnit float64            `json:"sebes_rub_unit"`
	TaxRateHint  float64            `json:"tax_rate_hint"`
	PercMPHint   float64            `json:"perc_mp_hint"`
	PlanRow      map[string]float64 `json:"plan_row"`
}

type fileFormat struct {
	Meta      Meta            `json:"meta"`
	Overrides map[string]Item `json:"overrides"`
}

// Snapshot is one immutable load of the override file.
type Snapshot struct {
	Meta  Meta
	Items map[int64]Item
}

// Empty reports whether the snapshot carries no overrides.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Items) == 0
}

// Item returns the calibration hints for one SKU.
func (s *Snapshot) Item(nmID int64) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	item, ok := s.Items[nmID]
	return item, ok
}

// MatchesWindow reports whether the snapshot was built for exactly the
// given reconciliation window. Plan rows only apply on an exact match;
// the per-unit scalar hints are window-independent.
func (s *Snapshot) MatchesWindow(dateFrom, dateTo string) bool {
	if s == nil {
		return false
	}
	return s.Meta.DateFrom == dateFrom && s.Meta.DateTo == dateTo
}

// ScalarsOnly returns a copy of the snapshot with the window-bound
// plan rows stripped, leaving the per-unit scalar hints. Used when a
// build window does not match the captured one.
func (s *Snapshot) ScalarsOnly() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := &Snapshot{
		Meta:  s.Meta,
		Items: make(map[int64]Item, len(s.Items)),
	}
	for nmID, item := range s.Items {
		item.PlanRow = nil
		out.Items[nmID] = item
	}
	return out
}

// Store loads calibration overrides from a JSON file. The file is
// re-read only when its mtime changes; a missing or broken file yields
// an empty snapshot so checklist builds keep working without
// calibration.
type Store struct {
	path    string
	enabled bool
	logger  *logger.Logger

	mu     sync.Mutex
	mtime  time.Time
	cached *Snapshot
}

// NewStore creates a calibration store for the given file path.
func NewStore(path string, enabled bool, log *logger.Logger) *Store {
	return &Store{
		path:    path,
		enabled: enabled && path != "",
		logger:  log,
	}
}

// Snapshot returns the current override snapshot, reloading the file
// if it changed on disk.
func (s *Store) Snapshot() *Snapshot {
	if !s.enabled {
		return &Snapshot{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		if s.cached == nil {
			s.cached = &Snapshot{}
		}
		return s.cached
	}

	if s.cached != nil && info.ModTime().Equal(s.mtime) {
		return s.cached
	}

	snapshot, err := load(s.path)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Calibration file load failed")
		if s.cached == nil {
			s.cached = &Snapshot{}
		}
		return s.cached
	}

	s.mtime = info.ModTime()
	s.cached = snapshot
	s.logger.WithFields(map[string]interface{}{
		"path":      s.path,
		"items":     len(snapshot.Items),
		"date_from": snapshot.Meta.DateFrom,
		"date_to":   snapshot.Meta.DateTo,
	}).Info("Calibration overrides loaded")

	return s.cached
}

func load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var parsed fileFormat
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse calibration file: %w", err)
	}

	snapshot := &Snapshot{
		Meta:  parsed.Meta,
		Items: make(map[int64]Item, len(parsed.Overrides)),
	}
	for key, item := range parsed.Overrides {
		nmID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || nmID <= 0 {
			continue
		}
		snapshot.Items[nmID] = item
	}

	return snapshot, nil
}

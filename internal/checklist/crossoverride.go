package checklist

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/btlz/tenx/backend/pkg/logger"
)

// CrossOverrides are manual per-(SKU, day) field overrides applied as
// the very last step of a build.
type CrossOverrides map[dayKey]map[string]float64

// Value returns the override for one field, if any.
func (o CrossOverrides) Value(nmID int64, day, field string) (float64, bool) {
	fields, ok := o[dayKey{nmID, day}]
	if !ok {
		return 0, false
	}
	v, ok := fields[field]
	return v, ok
}

// CrossOverrideStore loads the override CSV, re-reading only on mtime
// change. The file is wide: `nm_id,field,comment,<day1>,<day2>,...`
// with one row per (SKU, field) and day columns from the header.
// A missing or broken file yields no overrides.
type CrossOverrideStore struct {
	path   string
	logger *logger.Logger

	mu     sync.Mutex
	mtime  time.Time
	cached CrossOverrides
}

func NewCrossOverrideStore(path string, log *logger.Logger) *CrossOverrideStore {
	return &CrossOverrideStore{path: path, logger: log}
}

// Overrides returns the current override set.
func (s *CrossOverrideStore) Overrides() CrossOverrides {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		s.cached = nil
		s.mtime = time.Time{}
		return nil
	}
	if s.cached != nil && info.ModTime().Equal(s.mtime) {
		return s.cached
	}

	parsed, err := loadCrossOverrides(s.path)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Cross-override CSV unreadable, overrides disabled")
		parsed = nil
	}
	s.cached = parsed
	s.mtime = info.ModTime()
	return s.cached
}

func loadCrossOverrides(path string) (CrossOverrides, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) < 4 {
		return nil, nil
	}

	dayCols := make([]string, len(rows[0])-3)
	for i, raw := range rows[0][3:] {
		dayCols[i] = strings.Trim(strings.TrimSpace(raw), `"`)
	}

	out := CrossOverrides{}
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		nmID, _ := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		field := strings.TrimSpace(row[1])
		if nmID == 0 || field == "" {
			continue
		}
		for i, day := range dayCols {
			if day == "" {
				continue
			}
			col := i + 3
			if col >= len(row) {
				break
			}
			raw := strings.TrimSpace(strings.ReplaceAll(row[col], ",", "."))
			if raw == "" {
				continue
			}
			val, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			key := dayKey{nmID, day}
			if out[key] == nil {
				out[key] = map[string]float64{}
			}
			out[key][field] = val
		}
	}
	return out, nil
}

package checklist

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/btlz/tenx/backend/internal/calibration"
	"github.com/btlz/tenx/backend/internal/contracts"
	"github.com/btlz/tenx/backend/internal/fixture"
	"github.com/btlz/tenx/backend/internal/formula"
	"github.com/btlz/tenx/backend/pkg/config"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// ErrInvalidDateRange is returned when date_to precedes date_from.
var ErrInvalidDateRange = errors.New("checklist: date_to precedes date_from")

// maxWarmupDays caps the warm-up prefix added before date_from.
const maxWarmupDays = 180

// Service runs checklist builds end to end: assemble sources, estimate
// rates, derive rows.
type Service struct {
	tun      Tuning
	logger   *logger.Logger
	store    contracts.SnapshotStore
	provider contracts.Provider

	calibration *calibration.Store
	fixture     *fixture.Store
	cross       *CrossOverrideStore
	formula     *formula.Engine
}

// NewService wires a checklist service from configuration. File-backed
// inputs (calibration, fixture workbook, formula rules, cross
// overrides) are optional; empty paths disable them.
func NewService(cfg config.ChecklistConfig, store contracts.SnapshotStore, provider contracts.Provider, log *logger.Logger) (*Service, error) {
	tun, err := LoadTuning(cfg)
	if err != nil {
		return nil, err
	}

	return &Service{
		tun:         tun,
		logger:      log,
		store:       store,
		provider:    provider,
		calibration: calibration.NewStore(cfg.CalibrationFile, cfg.CalibrationEnabled, log),
		fixture:     fixture.NewStore(cfg.FixtureXLSX, tun.UseFixtureSnapshot, log),
		cross:       NewCrossOverrideStore(cfg.CrossOverridesCSV, log),
		formula:     formula.FromFile(cfg.FormulaRulesFile, log),
	}, nil
}

// Tuning returns the effective tuning of the service.
func (s *Service) Tuning() Tuning {
	return s.tun
}

// BuildChecklist assembles and derives the checklist rows for the given
// SKUs and day range. Empty dates default to the trailing 30 days
// ending today. The range is extended backwards by the warm-up window
// so rolling estimators and carry-forward state are seeded; warm-up
// rows never appear in the output.
func (s *Service) BuildChecklist(ctx context.Context, nmIDs []int64, dateFrom, dateTo string) ([]map[string]any, error) {
	dateFrom, dateTo, err := normalizeRange(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	warmup := s.tun.WarmupDays
	if warmup < 0 {
		warmup = 0
	}
	if warmup > maxWarmupDays {
		warmup = maxWarmupDays
	}
	warmupFrom := addDays(dateFrom, -warmup)

	started := time.Now()
	s.logger.WithFields(map[string]interface{}{
		"nm_ids":      len(nmIDs),
		"date_from":   dateFrom,
		"date_to":     dateTo,
		"warmup_from": warmupFrom,
	}).Info("Checklist build started")

	reconciler := NewSourceReconciler(s.store, s.provider, s.tun, s.logger)
	data := reconciler.Assemble(ctx, nmIDs, warmupFrom, dateTo)

	var workbook *fixture.Workbook
	if s.tun.UseFixtureSnapshot {
		workbook = s.fixture.Snapshot()
	}

	// Plan-row calibration applies only when its captured window matches
	// the requested one; the per-unit scalar hints survive a mismatch.
	cal := s.calibration.Snapshot()
	if !cal.MatchesWindow(dateFrom, dateTo) {
		cal = cal.ScalarsOnly()
	}

	idx := newSettingsIndex(data, workbook, cal)
	estimator := newEstimator(s.tun, idx, workbook)
	unit := newUnitEconomics(s.tun, idx, data.Commissions)
	builder := newRowBuilder(s.tun, s.formula, unit, idx, workbook, s.logger)

	ordersDyn := estimator.OrdersDyn(data)
	rates := estimator.BuyoutRates(data)

	rows := builder.Build(data, ordersDyn, rates, s.cross.Overrides(), dateFrom)

	s.logger.WithFields(map[string]interface{}{
		"rows":        len(rows),
		"nm_ids":      len(data.NmIDs),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Checklist build finished")

	return rows, nil
}

// normalizeRange fills defaults and validates ordering.
func normalizeRange(dateFrom, dateTo string) (string, string, error) {
	if dateTo == "" {
		dateTo = todayYMD()
	} else {
		dateTo = parseYMD(dateTo)
	}
	if dateFrom == "" {
		dateFrom = addDays(dateTo, -30)
	} else {
		dateFrom = parseYMD(dateFrom)
	}
	if dateTo < dateFrom {
		return "", "", ErrInvalidDateRange
	}
	return dateFrom, dateTo, nil
}

// RowDates returns the distinct dates of a built row set, sorted.
func RowDates(rows []map[string]any) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		if d, ok := row["date"].(string); ok {
			seen[d] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

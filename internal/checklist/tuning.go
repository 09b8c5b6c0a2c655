package checklist

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/btlz/tenx/backend/pkg/config"
)

// Tuning carries the estimator and cost-model knobs the build uses.
// Values start from env configuration; an optional YAML file overrides
// individual knobs for parity experiments without redeploying.
type Tuning struct {
	BuyoutModel string `yaml:"buyout_model"`

	MonthWindowDays int `yaml:"month_window_days"`
	MonthLagDays    int `yaml:"month_lag_days"`
	MonthMinOrders  int `yaml:"month_min_orders"`
	DayWindowDays   int `yaml:"day_window_days"`
	DayLagDays      int `yaml:"day_lag_days"`
	DayMinOrders    int `yaml:"day_min_orders"`

	BuyoutDayFromReport bool `yaml:"buyout_day_from_report"`

	DefaultPercMP        float64 `yaml:"default_perc_mp"`
	DefaultAcquiringPerc float64 `yaml:"default_acquiring_perc"`
	DefaultTaxTotalPerc  float64 `yaml:"default_tax_total_perc"`
	DefaultBuyoutPercent float64 `yaml:"default_buyout_percent"`

	WarmupDays           int     `yaml:"warmup_days"`
	ReportTZOffsetHours  float64 `yaml:"report_tz_offset_hours"`
	SalesBufferDays      int     `yaml:"sales_buffer_days"`
	LocalizationCarryFwd bool    `yaml:"localization_carry_forward"`
	UnitLogEarlyFill     bool    `yaml:"unit_log_early_fill"`

	CommissionField      string `yaml:"commission_field"`
	OverridePercMPFromWB bool   `yaml:"override_perc_mp_from_wb"`

	UseFixtureSnapshot    bool `yaml:"use_fixture_snapshot"`
	UseFixtureBuyoutRates bool `yaml:"use_fixture_buyout_rates"`
	UseFixtureMetrics     bool `yaml:"use_fixture_metrics"`
}

// TuningFromConfig copies the env-derived knobs into a Tuning.
func TuningFromConfig(cfg config.ChecklistConfig) Tuning {
	return Tuning{
		BuyoutModel:           cfg.BuyoutModel,
		MonthWindowDays:       cfg.MonthWindowDays,
		MonthLagDays:          cfg.MonthLagDays,
		MonthMinOrders:        cfg.MonthMinOrders,
		DayWindowDays:         cfg.DayWindowDays,
		DayLagDays:            cfg.DayLagDays,
		DayMinOrders:          cfg.DayMinOrders,
		BuyoutDayFromReport:   cfg.BuyoutDayFromReport,
		DefaultPercMP:         cfg.DefaultPercMP,
		DefaultAcquiringPerc:  cfg.DefaultAcquiringPerc,
		DefaultTaxTotalPerc:   cfg.DefaultTaxTotalPerc,
		DefaultBuyoutPercent:  cfg.DefaultBuyoutPercent,
		WarmupDays:            cfg.WarmupDays,
		ReportTZOffsetHours:   cfg.ReportTZOffsetHours,
		SalesBufferDays:       cfg.SalesBufferDays,
		LocalizationCarryFwd:  cfg.LocalizationCarryFwd,
		UnitLogEarlyFill:      cfg.UnitLogEarlyFill,
		CommissionField:       cfg.CommissionField,
		OverridePercMPFromWB:  cfg.OverridePercMPFromWB,
		UseFixtureSnapshot:    cfg.UseFixtureSnapshot,
		UseFixtureBuyoutRates: cfg.UseFixtureBuyoutRates,
		UseFixtureMetrics:     cfg.UseFixtureMetrics,
	}
}

// LoadTuning builds the effective tuning: env values overlaid with the
// optional YAML file. Unknown YAML keys fail loudly so a typo cannot
// silently fall back to defaults.
func LoadTuning(cfg config.ChecklistConfig) (Tuning, error) {
	tun := TuningFromConfig(cfg)
	if cfg.TuningFile == "" {
		return tun, nil
	}

	data, err := os.ReadFile(cfg.TuningFile)
	if err != nil {
		if os.IsNotExist(err) {
			return tun, nil
		}
		return tun, fmt.Errorf("read tuning file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tun); err != nil {
		return tun, fmt.Errorf("decode tuning file %s: %w", cfg.TuningFile, err)
	}
	return tun, nil
}

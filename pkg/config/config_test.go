package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8087" {
		t.Errorf("Expected Port to be 8087, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Database.MaxConns != 25 {
		t.Errorf("Expected DB MaxConns to be 25, got %d", cfg.Database.MaxConns)
	}

	if cfg.Checklist.BuyoutModel != "hint" {
		t.Errorf("Expected buyout model hint, got %s", cfg.Checklist.BuyoutModel)
	}

	if cfg.Checklist.DefaultPercMP != 0.315 {
		t.Errorf("Expected default perc_mp 0.315, got %v", cfg.Checklist.DefaultPercMP)
	}

	if cfg.Checklist.DefaultBuyoutPercent != 0.88 {
		t.Errorf("Expected default buyout percent 0.88, got %v", cfg.Checklist.DefaultBuyoutPercent)
	}

	if cfg.Checklist.MonthWindowDays != 30 || cfg.Checklist.MonthLagDays != 7 || cfg.Checklist.MonthMinOrders != 20 {
		t.Errorf("Unexpected month window defaults: %d/%d/%d",
			cfg.Checklist.MonthWindowDays, cfg.Checklist.MonthLagDays, cfg.Checklist.MonthMinOrders)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("DB_MAX_CONNS", "50")
	os.Setenv("LOG_LEVEL", "info")
	os.Setenv("CHECKLIST_BUYOUT_MODEL", "rolling")
	os.Setenv("CHECKLIST_DAY_WINDOW_DAYS", "14")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("DB_MAX_CONNS")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("CHECKLIST_BUYOUT_MODEL")
		os.Unsetenv("CHECKLIST_DAY_WINDOW_DAYS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Database.MaxConns != 50 {
		t.Errorf("Expected DB MaxConns to be 50, got %d", cfg.Database.MaxConns)
	}

	if cfg.Checklist.BuyoutModel != "rolling" {
		t.Errorf("Expected buyout model rolling, got %s", cfg.Checklist.BuyoutModel)
	}

	if cfg.Checklist.DayWindowDays != 14 {
		t.Errorf("Expected day window 14, got %d", cfg.Checklist.DayWindowDays)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateInvalidBuyoutModel(t *testing.T) {
	os.Setenv("CHECKLIST_BUYOUT_MODEL", "magic")
	defer os.Unsetenv("CHECKLIST_BUYOUT_MODEL")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when buyout model is invalid, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT", "100")
	defer os.Unsetenv("TEST_INT")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	os.Setenv("TEST_FLOAT", "0.42")
	defer os.Unsetenv("TEST_FLOAT")

	value := getEnvAsFloat("TEST_FLOAT", 0.1)
	if value != 0.42 {
		t.Errorf("Expected value to be 0.42, got %v", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}

package wb

import (
	"encoding/json"
	"testing"
)

func TestItemID(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want int64
	}{
		{"camelCase", map[string]any{"nmId": float64(12345)}, 12345},
		{"upper ID", map[string]any{"nmID": float64(12345)}, 12345},
		{"snake_case", map[string]any{"nm_id": float64(12345)}, 12345},
		{"string value", map[string]any{"nmId": "12345"}, 12345},
		{"missing", map[string]any{"sku": float64(12345)}, 0},
		{"zero skipped in favor of other spelling", map[string]any{"nmId": float64(0), "nm_id": float64(7)}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := itemID(tt.raw); got != tt.want {
				t.Errorf("itemID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 12.5, 12.5},
		{"int", 12, 12},
		{"string", "12.5", 12.5},
		{"comma decimal", "12,5", 12.5},
		{"json number", json.Number("0.315"), 0.315},
		{"garbage", "n/a", 0},
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"bool", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toFloat(tt.in); got != tt.want {
				t.Errorf("toFloat(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"int", 42, 42},
		{"float truncates", 42.9, 42},
		{"string", "42", 42},
		{"float string", "42.9", 42},
		{"garbage", "forty-two", 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toInt(tt.in); got != tt.want {
				t.Errorf("toInt(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDatesBetween(t *testing.T) {
	got := datesBetween("2025-05-01", "2025-05-03")
	want := []string{"2025-05-01", "2025-05-02", "2025-05-03"}
	if len(got) != len(want) {
		t.Fatalf("datesBetween() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("datesBetween()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if inverted := datesBetween("2025-05-03", "2025-05-01"); inverted != nil {
		t.Errorf("Expected nil for inverted range, got %v", inverted)
	}
	if malformed := datesBetween("yesterday", "2025-05-01"); malformed != nil {
		t.Errorf("Expected nil for malformed range, got %v", malformed)
	}
}

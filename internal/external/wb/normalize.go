package wb

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// The marketplace spells the item id three different ways across its
// APIs (nmId, nmID, nm_id) and mixes numeric and string scalars inside
// otherwise identical payloads. Everything loosely typed is funneled
// through the helpers below; anything unparseable coerces to zero.

// itemID extracts the item id from a raw object under any known key.
func itemID(m map[string]any) int64 {
	for _, key := range []string{"nmId", "nmID", "nm_id", "nmid"} {
		if v, ok := m[key]; ok {
			if id := toInt(v); id > 0 {
				return id
			}
		}
	}
	return 0
}

// toFloat coerces a JSON scalar to float64, zero on failure.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", "."))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// toInt coerces a JSON scalar to int64, zero on failure. Fractional
// values truncate toward zero.
func toInt(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		return int64(toFloat(v))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return int64(toFloat(v))
	default:
		return 0
	}
}

// datesBetween expands an inclusive [from, to] range into day keys.
// Malformed bounds or an inverted range yield nil.
func datesBetween(from, to string) []string {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}

// toString coerces a JSON scalar to its string form.
func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

package checklist

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// parseYMD normalizes any provider date string to its YYYY-MM-DD
// prefix. Empty input stays empty.
func parseYMD(value string) string {
	if len(value) >= 10 {
		return value[:10]
	}
	return value
}

// parseYMDLocal buckets an ISO timestamp by local date at the given
// UTC offset. Settlement report lines carry UTC timestamps while the
// sheets group by marketplace-local days.
func parseYMDLocal(value string, offsetHours float64) string {
	if value == "" {
		return ""
	}
	if len(value) == 10 {
		return value
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		ts, err = time.Parse("2006-01-02T15:04:05", value)
		if err != nil {
			return parseYMD(value)
		}
		ts = ts.UTC()
	}

	zone := time.FixedZone("report", int(offsetHours*3600))
	return ts.In(zone).Format(dayLayout)
}

// addDays shifts a YYYY-MM-DD string by delta days. Unparseable input
// is returned as is.
func addDays(day string, delta int) string {
	t, err := time.Parse(dayLayout, parseYMD(day))
	if err != nil {
		return parseYMD(day)
	}
	return t.AddDate(0, 0, delta).Format(dayLayout)
}

// dateRange returns every day from dateFrom to dateTo inclusive, or
// nil when the range is empty or unparseable.
func dateRange(dateFrom, dateTo string) []string {
	start, err := time.Parse(dayLayout, parseYMD(dateFrom))
	if err != nil {
		return nil
	}
	end, err := time.Parse(dayLayout, parseYMD(dateTo))
	if err != nil || end.Before(start) {
		return nil
	}

	var out []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		out = append(out, cur.Format(dayLayout))
	}
	return out
}

func todayYMD() string {
	return time.Now().Format(dayLayout)
}

// round2 rounds to 2 decimal places with ties to even, matching the
// reference aggregation rounding.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// round2HalfUp rounds to 2 decimal places with ties away from zero.
// Derived money fields use sheet ROUND semantics, not banker's. The
// rounding works on the shortest decimal form so representation noise
// (2.675 stored as 2.67499...) cannot flip a tie downward.
func round2HalfUp(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	for len(frac) < 3 {
		frac += "0"
	}
	cents, err := strconv.ParseInt(intPart+frac[:2], 10, 64)
	if err != nil {
		// Beyond cent precision anyway (huge, NaN, Inf).
		if v >= 0 || v != v {
			return math.Floor(v*100+0.5) / 100
		}
		return -math.Floor(-v*100+0.5) / 100
	}
	if frac[2] >= '5' {
		cents++
	}
	if neg {
		cents = -cents
	}
	return float64(cents) / 100
}

// roundIntHalfUp is sheet ROUND(x, 0): 0.5 rounds up for positive
// values, away from zero for negatives.
func roundIntHalfUp(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return -int64(-v + 0.5)
}

func round5(v float64) float64 {
	return math.RoundToEven(v*1e5) / 1e5
}

func round6(v float64) float64 {
	return math.RoundToEven(v*1e6) / 1e6
}

func safeDiv(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return value / base
}

// normPercent accepts both share (0.88) and percent (88) spellings and
// returns a share.
func normPercent(v float64) float64 {
	if v > 1.5 {
		return v / 100
	}
	return v
}

// clampShare normalizes a percent-or-share value and clamps it to the
// [0, 1.2] rate band at 6 decimal places.
func clampShare(v float64) float64 {
	return round6(math.Max(math.Min(normPercent(v), 1.2), 0))
}

// clampRate bounds an already-normalized rate to [0, 1.2] at 6dp.
func clampRate(v float64) float64 {
	return round6(math.Max(math.Min(v, 1.2), 0))
}

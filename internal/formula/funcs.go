package formula

import (
	"fmt"
	"math"
	"strings"
)

// builtin is one registry function. Arguments arrive as raw evaluation
// values; every builtin coerces for itself.
type builtin func(args ...any) (any, error)

const divEpsilon = 1e-12

// safeDiv divides with a zero-denominator fallback. Unlike the bare /
// operator, a zero denominator is not an error here.
func safeDiv(a, b, def any) float64 {
	base := asFloat(b)
	if math.Abs(base) < divEpsilon {
		return asFloat(def)
	}
	return asFloat(a) / base
}

// roundHalfEven rounds to ndigits decimal places with ties going to
// the even neighbor, matching the reference outputs.
func roundHalfEven(v float64, ndigits int) float64 {
	scale := math.Pow(10, float64(ndigits))
	return math.RoundToEven(v*scale) / scale
}

// registry returns the function set exposed to rules. Nothing else is
// callable.
func registry() map[string]builtin {
	return map[string]builtin{
		"safe_div": func(args ...any) (any, error) {
			if len(args) < 2 || len(args) > 3 {
				return nil, fmt.Errorf("safe_div expects 2 or 3 arguments, got %d", len(args))
			}
			var def any = 0.0
			if len(args) == 3 {
				def = args[2]
			}
			return safeDiv(args[0], args[1], def), nil
		},

		"clamp": func(args ...any) (any, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("clamp expects 3 arguments, got %d", len(args))
			}
			v := asFloat(args[0])
			lo := asFloat(args[1])
			hi := asFloat(args[2])
			if lo > hi {
				lo, hi = hi, lo
			}
			return math.Min(math.Max(v, lo), hi), nil
		},

		"coalesce": func(args ...any) (any, error) {
			for _, item := range args {
				if item == nil {
					continue
				}
				if s, ok := item.(string); ok && strings.TrimSpace(s) == "" {
					continue
				}
				return item, nil
			}
			return nil, nil
		},

		"min": func(args ...any) (any, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("min expects at least 1 argument")
			}
			best := asFloat(args[0])
			for _, item := range args[1:] {
				if v := asFloat(item); v < best {
					best = v
				}
			}
			return best, nil
		},

		"max": func(args ...any) (any, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("max expects at least 1 argument")
			}
			best := asFloat(args[0])
			for _, item := range args[1:] {
				if v := asFloat(item); v > best {
					best = v
				}
			}
			return best, nil
		},

		"abs": func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("abs expects 1 argument, got %d", len(args))
			}
			return math.Abs(asFloat(args[0])), nil
		},

		"round": func(args ...any) (any, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, fmt.Errorf("round expects 1 or 2 arguments, got %d", len(args))
			}
			ndigits := 0
			if len(args) == 2 {
				ndigits = int(asFloat(args[1]))
			}
			return roundHalfEven(asFloat(args[0]), ndigits), nil
		},

		"float": func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("float expects 1 argument, got %d", len(args))
			}
			return asFloat(args[0]), nil
		},

		"int": func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("int expects 1 argument, got %d", len(args))
			}
			return roundHalfEven(asFloat(args[0]), 0), nil
		},
	}
}

package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// env carries the variable bindings and function registry for one
// evaluation. Unknown identifiers resolve to 0 so partially filled
// rows never fail a rule.
type env struct {
	names map[string]any
	funcs map[string]builtin
}

func (n *numberLit) eval(*env) (any, error) {
	return n.value, nil
}

func (s *stringLit) eval(*env) (any, error) {
	return s.value, nil
}

func (id *ident) eval(e *env) (any, error) {
	if v, ok := e.names[id.name]; ok {
		return v, nil
	}
	return 0.0, nil
}

func (b *binaryOp) eval(e *env) (any, error) {
	left, err := b.left.eval(e)
	if err != nil {
		return nil, err
	}
	right, err := b.right.eval(e)
	if err != nil {
		return nil, err
	}

	switch b.op {
	case "+":
		return asFloat(left) + asFloat(right), nil
	case "-":
		return asFloat(left) - asFloat(right), nil
	case "*":
		return asFloat(left) * asFloat(right), nil
	case "/":
		den := asFloat(right)
		if math.Abs(den) < divEpsilon {
			// A bare / raising on zero denominator is what lets a
			// misconfigured rule fail and yield to the hard-coded
			// fallback; safe_div is the forgiving variant.
			return nil, fmt.Errorf("division by zero")
		}
		return asFloat(left) / den, nil
	case "**":
		return math.Pow(asFloat(left), asFloat(right)), nil
	}
	return nil, fmt.Errorf("unsupported operator %q", b.op)
}

func (u *unaryOp) eval(e *env) (any, error) {
	val, err := u.operand.eval(e)
	if err != nil {
		return nil, err
	}

	switch u.op {
	case "+":
		return asFloat(val), nil
	case "-":
		return -asFloat(val), nil
	case "not":
		return !truthy(val), nil
	}
	return nil, fmt.Errorf("unsupported unary operator %q", u.op)
}

// boolOp short-circuits and returns the deciding operand value, not a
// coerced boolean.
func (b *boolOp) eval(e *env) (any, error) {
	var result any = false
	for _, item := range b.values {
		v, err := item.eval(e)
		if err != nil {
			return nil, err
		}
		result = v
		if b.op == "and" && !truthy(v) {
			return result, nil
		}
		if b.op == "or" && truthy(v) {
			return result, nil
		}
	}
	return result, nil
}

// compareOp evaluates chained comparisons: a < b <= c means
// a < b and b <= c, with each operand evaluated once.
func (c *compareOp) eval(e *env) (any, error) {
	left, err := c.left.eval(e)
	if err != nil {
		return nil, err
	}

	for i, op := range c.ops {
		right, err := c.comparators[i].eval(e)
		if err != nil {
			return nil, err
		}

		var ok bool
		switch op {
		case "==":
			ok = equalValues(left, right)
		case "!=":
			ok = !equalValues(left, right)
		case "<":
			ok = asFloat(left) < asFloat(right)
		case "<=":
			ok = asFloat(left) <= asFloat(right)
		case ">":
			ok = asFloat(left) > asFloat(right)
		case ">=":
			ok = asFloat(left) >= asFloat(right)
		default:
			return nil, fmt.Errorf("unsupported compare operator %q", op)
		}

		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func (c *condExpr) eval(e *env) (any, error) {
	test, err := c.test.eval(e)
	if err != nil {
		return nil, err
	}
	if truthy(test) {
		return c.body.eval(e)
	}
	return c.orelse.eval(e)
}

func (c *callExpr) eval(e *env) (any, error) {
	fn, ok := e.funcs[c.name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", c.name)
	}

	args := make([]any, len(c.args))
	for i, arg := range c.args {
		v, err := arg.eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fn(args...)
}

// asFloat coerces an evaluation value to float64, zero on anything
// non-numeric.
func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// truthy mirrors boolean coercion of the rule language: zero, empty
// string, false and nil are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// equalValues implements == for the value kinds the language can
// produce. Numbers compare numerically, strings and bools compare by
// value, mixed kinds are unequal.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return aIsStr && bIsStr && as == bs
	}

	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return ab == bb
	}

	return asFloat(a) == asFloat(b)
}

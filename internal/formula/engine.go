package formula

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/btlz/tenx/backend/pkg/logger"
)

// Rule is one formula layer rule: write expr's value into field.
type Rule struct {
	Field string `json:"field"`
	Expr  string `json:"expr"`
}

// checklistOutputFields are the only fields a rule may override in the
// final checklist row. Rules can still write intermediate names for
// later rules to read.
var checklistOutputFields = map[string]bool{
	"expected_buyouts_dyn":     true,
	"expected_buyouts_count":   true,
	"expected_buyouts_sum_rub": true,
	"avg_price_with_spp":       true,
	"profit_without_adv":       true,
	"profit_with_adv":          true,
}

type compiledRule struct {
	field string
	expr  node
}

// Engine applies an ordered list of rules to a value map. Rules are
// compiled once at construction; a rule that fails to parse or to
// evaluate is skipped without affecting the others.
type Engine struct {
	rules  []compiledRule
	funcs  map[string]builtin
	logger *logger.Logger
}

// NewEngine compiles the given rules. Unparseable rules are dropped
// with a warning.
func NewEngine(rules []Rule, log *logger.Logger) *Engine {
	engine := &Engine{
		funcs:  registry(),
		logger: log,
	}

	for _, rule := range rules {
		field := strings.TrimSpace(rule.Field)
		expr := strings.TrimSpace(rule.Expr)
		if field == "" || expr == "" {
			continue
		}

		compiled, err := parse(expr)
		if err != nil {
			log.WithError(err).WithField("field", field).Warn("Formula rule failed to parse")
			continue
		}
		engine.rules = append(engine.rules, compiledRule{field: field, expr: compiled})
	}

	return engine
}

// FromFile loads rules from a JSON file ({"rules":[{field,expr}]}).
// A missing or broken file yields an engine with no rules.
func FromFile(path string, log *logger.Logger) *Engine {
	if path == "" {
		return NewEngine(nil, log)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return NewEngine(nil, log)
	}

	var payload struct {
		Rules []Rule `json:"rules"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.WithError(err).WithField("path", path).Warn("Formula rules file is not valid JSON")
		return NewEngine(nil, log)
	}

	return NewEngine(payload.Rules, log)
}

// RuleCount returns the number of successfully compiled rules.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

// Eval evaluates a single expression against the given names. Used by
// tests and diagnostics; rule application goes through Apply.
func (e *Engine) Eval(expr string, names map[string]any) (any, error) {
	compiled, err := parse(expr)
	if err != nil {
		return nil, err
	}
	return compiled.eval(&env{names: names, funcs: e.funcs})
}

// Apply runs all rules in order over a copy of base. Each rule sees
// the outputs of the rules before it. Failing rules are skipped.
func (e *Engine) Apply(base map[string]any) map[string]any {
	values := make(map[string]any, len(base)+len(e.rules))
	for k, v := range base {
		values[k] = v
	}

	for _, rule := range e.rules {
		result, err := rule.expr.eval(&env{names: values, funcs: e.funcs})
		if err != nil {
			e.logger.WithError(err).WithField("field", rule.field).Debug("Formula rule skipped")
			continue
		}
		values[rule.field] = result
	}

	return values
}

// ApplyChecklist runs the rules and returns only the allow-listed
// checklist output fields that a rule actually wrote. Input fields
// echoed from base never count as rule output, so a skipped rule
// leaves its field absent and the builder's fallback in charge.
func (e *Engine) ApplyChecklist(base map[string]any) map[string]any {
	if len(e.rules) == 0 {
		return nil
	}

	values := make(map[string]any, len(base)+len(e.rules))
	for k, v := range base {
		values[k] = v
	}

	out := make(map[string]any)
	for _, rule := range e.rules {
		result, err := rule.expr.eval(&env{names: values, funcs: e.funcs})
		if err != nil {
			e.logger.WithError(err).WithField("field", rule.field).Debug("Formula rule skipped")
			continue
		}
		values[rule.field] = result
		if checklistOutputFields[rule.field] {
			out[rule.field] = result
		}
	}
	return out
}

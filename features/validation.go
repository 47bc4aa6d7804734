package features

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Rule is a numeric sanity check evaluated after the presence check.
// Expression is CEL over the record's fields and must yield a bool.
type Rule struct {
	Field      string
	Expression string
	Reason     string
}

// ConsistencyRules are checked in order; the first violation wins.
// double() accepts ints, doubles and numeric strings, so "-3" is caught
// here as well as -3.
var ConsistencyRules = []Rule{
	{Field: "tenure", Expression: "double(tenure) >= 0.0", Reason: "Tenure cannot be negative"},
	{Field: "monthly_charges", Expression: "double(monthly_charges) >= 0.0", Reason: "Monthly charges cannot be negative"},
	{Field: "total_charges", Expression: "double(total_charges) >= 0.0", Reason: "Total charges cannot be negative"},
}

type compiledRule struct {
	Rule
	prog cel.Program
}

// Validator checks records for presence of every schema field and for
// consistency of numeric fields. It holds only compiled programs and is
// safe for concurrent use.
type Validator struct {
	rules []compiledRule
}

// NewCELEnv creates a CEL environment with one dynamic variable per schema field
func NewCELEnv() (*cel.Env, error) {
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, f := range schema {
		opts = append(opts, cel.Variable(f.Name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewValidator compiles rules into a Validator
func NewValidator(rules []Rule) (*Validator, error) {
	env, err := NewCELEnv()
	if err != nil {
		return nil, err
	}

	v := &Validator{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if _, ok := Lookup(r.Field); !ok {
			return nil, fmt.Errorf("rule %q references unknown field %s", r.Expression, r.Field)
		}

		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile error in rule %q: %w", r.Expression, issues.Err())
		}
		prog, err := env.Program(ast, cel.CostLimit(10000))
		if err != nil {
			return nil, fmt.Errorf("program creation error in rule %q: %w", r.Expression, err)
		}
		v.rules = append(v.rules, compiledRule{Rule: r, prog: prog})
	}

	return v, nil
}

var defaultValidator = func() *Validator {
	v, err := NewValidator(ConsistencyRules)
	if err != nil {
		panic(fmt.Sprintf("features: built-in consistency rules: %v", err))
	}
	return v
}()

// Validate runs the presence and consistency checks with the built-in rules
func Validate(r Record) error {
	return defaultValidator.Validate(r)
}

// Validate checks presence first; consistency is evaluated only if every
// field is present. A nil error means the record may be encoded.
func (v *Validator) Validate(r Record) error {
	if err := CheckPresence(r); err != nil {
		return err
	}
	return v.CheckConsistency(r)
}

// CheckPresence reports every schema field missing from r, in schema order
func CheckPresence(r Record) error {
	var missing []string
	for _, f := range schema {
		if _, ok := r[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &ValidationError{
		Kind:   SchemaMissingField,
		Fields: missing,
		Reason: "Missing required fields: " + strings.Join(missing, ", "),
	}
}

// CheckConsistency evaluates the numeric sanity rules in order.
// A rule whose field holds a non-numeric value cannot be evaluated and is
// skipped; the encoder rejects such values.
func (v *Validator) CheckConsistency(r Record) error {
	for _, rule := range v.rules {
		out, _, err := rule.prog.Eval(map[string]any(r))
		if err != nil {
			continue
		}

		ok, isBool := out.Value().(bool)
		if !isBool || ok {
			continue
		}

		return &ValidationError{
			Kind:   ConsistencyViolation,
			Fields: []string{rule.Field},
			Rule:   rule.Expression,
			Reason: rule.Reason,
		}
	}
	return nil
}

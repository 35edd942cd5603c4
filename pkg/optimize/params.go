package optimize

import (
	"fmt"
	"strconv"

	"github.com/web3guy0/quantframe/pkg/decimal"
)

// ParameterKind tags a strategy parameter's value type.
type ParameterKind int

const (
	KindInt ParameterKind = iota
	KindDecimal
	KindBool
	KindDiscrete
)

func (k ParameterKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// ParameterValue is one tagged value of a strategy parameter.
type ParameterValue struct {
	Kind    ParameterKind
	IntVal  int64
	DecVal  decimal.Decimal
	BoolVal bool
	Choice  string
}

func IntValue(v int64) ParameterValue         { return ParameterValue{Kind: KindInt, IntVal: v} }
func DecimalValue(v decimal.Decimal) ParameterValue {
	return ParameterValue{Kind: KindDecimal, DecVal: v}
}
func BoolValue(v bool) ParameterValue     { return ParameterValue{Kind: KindBool, BoolVal: v} }
func DiscreteValue(v string) ParameterValue { return ParameterValue{Kind: KindDiscrete, Choice: v} }

// Int returns the value as an int64, converting decimals by truncation.
func (v ParameterValue) Int() int64 {
	if v.Kind == KindDecimal {
		return int64(v.DecVal.InexactFloat64())
	}
	return v.IntVal
}

// Decimal returns the value as a Decimal, converting ints exactly.
func (v ParameterValue) Decimal() decimal.Decimal {
	if v.Kind == KindInt {
		return decimal.NewFromInt(v.IntVal)
	}
	return v.DecVal
}

func (v ParameterValue) Bool() bool { return v.BoolVal }

func (v ParameterValue) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.IntVal, 10)
	case KindDecimal:
		return v.DecVal.String()
	case KindBool:
		return strconv.FormatBool(v.BoolVal)
	case KindDiscrete:
		return v.Choice
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v ParameterValue) Equal(other ParameterValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.IntVal == other.IntVal
	case KindDecimal:
		return v.DecVal.Equal(other.DecVal)
	case KindBool:
		return v.BoolVal == other.BoolVal
	case KindDiscrete:
		return v.Choice == other.Choice
	default:
		return false
	}
}

// ParameterSet is one materialized combination, name -> value.
type ParameterSet map[string]ParameterValue

// Clone deep-copies the set so a stored combination cannot alias a caller's
// map.
func (s ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// IntRange enumerates min..max inclusive by step.
type IntRange struct {
	Min, Max, Step int64
}

// DecimalRange enumerates min..max inclusive by step.
type DecimalRange struct {
	Min, Max, Step decimal.Decimal
}

// Range is the tagged candidate-value range of an optimizable parameter.
// Exactly one branch is set, and it must match the owning parameter's kind:
// Int for KindInt, Dec for KindDecimal, Choices for KindDiscrete. KindBool
// needs no branch; its two values are implied.
type Range struct {
	Int     *IntRange
	Dec     *DecimalRange
	Choices []string
}

// StrategyParameter declares one tunable input of a strategy.
type StrategyParameter struct {
	Name     string
	Kind     ParameterKind
	Default  ParameterValue
	Optimize bool
	Range    *Range
}

// Validate enforces the parameter's structural invariant: an optimizable
// parameter must carry a range whose tag matches its kind.
func (p StrategyParameter) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("optimize: parameter has no name")
	}
	if !p.Optimize {
		return nil
	}
	switch p.Kind {
	case KindInt:
		if p.Range == nil || p.Range.Int == nil {
			return fmt.Errorf("optimize: parameter %q: optimize=true requires an int range", p.Name)
		}
		if p.Range.Int.Step <= 0 || p.Range.Int.Max < p.Range.Int.Min {
			return fmt.Errorf("optimize: parameter %q: invalid int range", p.Name)
		}
	case KindDecimal:
		if p.Range == nil || p.Range.Dec == nil {
			return fmt.Errorf("optimize: parameter %q: optimize=true requires a decimal range", p.Name)
		}
		if !p.Range.Dec.Step.IsPositive() || p.Range.Dec.Max.LessThan(p.Range.Dec.Min) {
			return fmt.Errorf("optimize: parameter %q: invalid decimal range", p.Name)
		}
	case KindBool:
		// both values are implied
	case KindDiscrete:
		if p.Range == nil || len(p.Range.Choices) == 0 {
			return fmt.Errorf("optimize: parameter %q: optimize=true requires a discrete choice set", p.Name)
		}
	default:
		return fmt.Errorf("optimize: parameter %q: unknown kind", p.Name)
	}
	return nil
}

// Expand materializes the parameter's candidate values: the enumerated
// range when optimizing, or just the default when held fixed.
func (p StrategyParameter) Expand() ([]ParameterValue, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.Optimize {
		return []ParameterValue{p.Default}, nil
	}

	switch p.Kind {
	case KindInt:
		r := p.Range.Int
		var out []ParameterValue
		for v := r.Min; v <= r.Max; v += r.Step {
			out = append(out, IntValue(v))
		}
		return out, nil
	case KindDecimal:
		r := p.Range.Dec
		var out []ParameterValue
		for v := r.Min; v.LessThanOrEqual(r.Max); v = v.Add(r.Step) {
			out = append(out, DecimalValue(v))
		}
		return out, nil
	case KindBool:
		return []ParameterValue{BoolValue(false), BoolValue(true)}, nil
	case KindDiscrete:
		out := make([]ParameterValue, len(p.Range.Choices))
		for i, c := range p.Range.Choices {
			out[i] = DiscreteValue(c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("optimize: parameter %q: unknown kind", p.Name)
	}
}

// specs expands declared parameters into the flat per-parameter value lists
// the grid enumerator consumes.
func specs(params []StrategyParameter) ([]ParameterSpec, error) {
	out := make([]ParameterSpec, 0, len(params))
	for _, p := range params {
		values, err := p.Expand()
		if err != nil {
			return nil, err
		}
		out = append(out, ParameterSpec{Name: p.Name, Values: values, Optimize: p.Optimize})
	}
	return out, nil
}

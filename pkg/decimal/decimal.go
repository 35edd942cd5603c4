// Package decimal provides the fixed-precision signed numeric type used on
// every price, quantity, PnL and balance field across quantframe. It wraps
// github.com/shopspring/decimal and adds a distinguished NaN sentinel, since
// shopspring's type has none and the indicator layer (out of scope here,
// but sharing this type) relies on NaN propagation.
package decimal

import (
	"fmt"

	shopspring "github.com/shopspring/decimal"
)

// Decimal is a fixed-precision signed number with a distinguished NaN.
// The zero value is the number zero and equals Zero.
type Decimal struct {
	val   shopspring.Decimal
	isNaN bool
}

// NaN is the distinguished not-a-number sentinel. It propagates through all
// arithmetic and compares unequal to itself under Equal, but sorts greater
// than every other Decimal under Cmp (total order).
var NaN = Decimal{isNaN: true}

// Zero is the additive identity.
var Zero = Decimal{val: shopspring.Zero}

// ErrDivideByZero is returned by Div when the divisor is zero.
var ErrDivideByZero = fmt.Errorf("decimal: divide by zero")

// NewFromInt builds a Decimal from an integer.
func NewFromInt(v int64) Decimal {
	return Decimal{val: shopspring.NewFromInt(v)}
}

// NewFromFloat builds a Decimal from a float64. Prefer Parse for values that
// originate as text (exchange payloads, config files) to avoid binary float
// rounding.
func NewFromFloat(v float64) Decimal {
	return Decimal{val: shopspring.NewFromFloat(v)}
}

// Parse parses a decimal string.
func Parse(s string) (Decimal, error) {
	v, err := shopspring.NewFromString(s)
	if err != nil {
		return NaN, fmt.Errorf("decimal: parse %q: %w", s, err)
	}
	return Decimal{val: v}, nil
}

// IsNaN reports whether d is the NaN sentinel.
func (d Decimal) IsNaN() bool { return d.isNaN }

// String renders the decimal in its canonical textual form.
func (d Decimal) String() string {
	if d.isNaN {
		return "NaN"
	}
	return d.val.String()
}

// StringFixed renders the decimal fixed to n places after the point.
func (d Decimal) StringFixed(n int32) string {
	if d.isNaN {
		return "NaN"
	}
	return d.val.StringFixed(n)
}

// InexactFloat64 returns the nearest float64 approximation. NaN maps to
// math.NaN's bit pattern via the standard library's own NaN, since callers
// crossing into float-only APIs (e.g. statistics) need a real IEEE NaN.
func (d Decimal) InexactFloat64() float64 {
	if d.isNaN {
		return nan64()
	}
	f, _ := d.val.Float64()
	return f
}

func (d Decimal) add2(op func(a, b shopspring.Decimal) shopspring.Decimal, other Decimal) Decimal {
	if d.isNaN || other.isNaN {
		return NaN
	}
	return Decimal{val: op(d.val, other.val)}
}

// Add returns d + other.
func (d Decimal) Add(other Decimal) Decimal {
	return d.add2(func(a, b shopspring.Decimal) shopspring.Decimal { return a.Add(b) }, other)
}

// Sub returns d - other.
func (d Decimal) Sub(other Decimal) Decimal {
	return d.add2(func(a, b shopspring.Decimal) shopspring.Decimal { return a.Sub(b) }, other)
}

// Mul returns d * other.
func (d Decimal) Mul(other Decimal) Decimal {
	return d.add2(func(a, b shopspring.Decimal) shopspring.Decimal { return a.Mul(b) }, other)
}

// Div returns d / other. It fails with ErrDivideByZero when other is zero.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	if d.isNaN || other.isNaN {
		return NaN, nil
	}
	if other.val.IsZero() {
		return NaN, ErrDivideByZero
	}
	return Decimal{val: d.val.Div(other.val)}, nil
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	if d.isNaN {
		return NaN
	}
	return Decimal{val: d.val.Neg()}
}

// Abs returns |d|.
func (d Decimal) Abs() Decimal {
	if d.isNaN {
		return NaN
	}
	return Decimal{val: d.val.Abs()}
}

// Sqrt returns the square root of d, used only by the indicator layer
// (out of scope here, but sharing this type via NaN propagation).
func (d Decimal) Sqrt() Decimal {
	if d.isNaN || d.val.IsNegative() {
		return NaN
	}
	f, _ := d.val.Float64()
	return NewFromFloat(sqrt64(f))
}

// Cmp implements a total order over Decimal: NaN compares greater than any
// non-NaN value and equal only to itself under Cmp. Equal still treats NaN
// as unequal to itself, IEEE-754 style.
func (d Decimal) Cmp(other Decimal) int {
	switch {
	case d.isNaN && other.isNaN:
		return 0
	case d.isNaN:
		return 1
	case other.isNaN:
		return -1
	default:
		return d.val.Cmp(other.val)
	}
}

// Equal reports value equality. NaN is never equal to anything, including
// itself.
func (d Decimal) Equal(other Decimal) bool {
	if d.isNaN || other.isNaN {
		return false
	}
	return d.val.Equal(other.val)
}

func (d Decimal) GreaterThan(other Decimal) bool {
	return !d.isNaN && !other.isNaN && d.val.GreaterThan(other.val)
}

func (d Decimal) GreaterThanOrEqual(other Decimal) bool {
	return !d.isNaN && !other.isNaN && d.val.GreaterThanOrEqual(other.val)
}

func (d Decimal) LessThan(other Decimal) bool {
	return !d.isNaN && !other.isNaN && d.val.LessThan(other.val)
}

func (d Decimal) LessThanOrEqual(other Decimal) bool {
	return !d.isNaN && !other.isNaN && d.val.LessThanOrEqual(other.val)
}

func (d Decimal) IsZero() bool     { return !d.isNaN && d.val.IsZero() }
func (d Decimal) IsPositive() bool { return !d.isNaN && d.val.IsPositive() }
func (d Decimal) IsNegative() bool { return !d.isNaN && d.val.IsNegative() }

func (d Decimal) Sign() int {
	if d.isNaN {
		return 0
	}
	return d.val.Sign()
}

func (d Decimal) Round(places int32) Decimal {
	if d.isNaN {
		return NaN
	}
	return Decimal{val: d.val.Round(places)}
}

// Shopspring exposes the underlying shopspring/decimal.Decimal for callers
// (e.g. GORM column scanning) that need the concrete third-party type.
func (d Decimal) Shopspring() shopspring.Decimal { return d.val }

// FromShopspring wraps an existing shopspring/decimal.Decimal.
func FromShopspring(v shopspring.Decimal) Decimal { return Decimal{val: v} }

package decimal

import "testing"

func TestAddSubMul(t *testing.T) {
	a := NewFromInt(10)
	b := NewFromInt(3)

	if got := a.Add(b); got.String() != "13" {
		t.Errorf("Add: expected 13, got %s", got.String())
	}
	if got := a.Sub(b); got.String() != "7" {
		t.Errorf("Sub: expected 7, got %s", got.String())
	}
	if got := a.Mul(b); got.String() != "30" {
		t.Errorf("Mul: expected 30, got %s", got.String())
	}
}

func TestDivByZero(t *testing.T) {
	a := NewFromInt(10)
	_, err := a.Div(Zero)
	if err != ErrDivideByZero {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestDivOK(t *testing.T) {
	a := NewFromInt(10)
	b := NewFromInt(4)
	got, err := a.Div(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "2.5" {
		t.Errorf("expected 2.5, got %s", got.String())
	}
}

func TestNaNPropagationAndOrdering(t *testing.T) {
	a := NewFromInt(5)

	if got := NaN.Add(a); !got.IsNaN() {
		t.Errorf("expected NaN to propagate through Add")
	}
	if got := a.Mul(NaN); !got.IsNaN() {
		t.Errorf("expected NaN to propagate through Mul")
	}

	if NaN.Equal(NaN) {
		t.Errorf("NaN must not equal itself under Equal")
	}
	if NaN.Cmp(NaN) != 0 {
		t.Errorf("NaN must compare equal to itself under Cmp (total order)")
	}
	if NaN.Cmp(a) <= 0 {
		t.Errorf("NaN must sort greater than any non-NaN value")
	}
	if a.Cmp(NaN) >= 0 {
		t.Errorf("non-NaN value must sort less than NaN")
	}
}

func TestNegAbs(t *testing.T) {
	a := NewFromInt(-7)
	if got := a.Neg(); got.String() != "7" {
		t.Errorf("Neg: expected 7, got %s", got.String())
	}
	if got := a.Abs(); got.String() != "7" {
		t.Errorf("Abs: expected 7, got %s", got.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	d, err := Parse("123.456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.StringFixed(2) != "123.46" {
		t.Errorf("expected 123.46, got %s", d.StringFixed(2))
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-a-number"); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestComparisons(t *testing.T) {
	a := NewFromInt(3)
	b := NewFromInt(5)

	if !a.LessThan(b) {
		t.Errorf("expected 3 < 5")
	}
	if !b.GreaterThanOrEqual(a) {
		t.Errorf("expected 5 >= 3")
	}
	if !Zero.IsZero() {
		t.Errorf("expected Zero.IsZero()")
	}
	if a.Sign() != 1 || b.Neg().Sign() != -1 {
		t.Errorf("unexpected sign values")
	}
}

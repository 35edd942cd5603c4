package position

import (
	"testing"

	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Open long 1@2000, add 1@2100, close 1@2050.
func TestWeightedEntryRoundTrip(t *testing.T) {
	p := &Position{Coin: "ETH"}

	p.Increase(decimal.NewFromInt(1), decimal.NewFromInt(2000), clock.Now())
	p.Increase(decimal.NewFromInt(1), decimal.NewFromInt(2100), clock.Now())

	if p.EntryPx.String() != "2050" {
		t.Fatalf("expected entry 2050 after add, got %s", p.EntryPx.String())
	}

	realized, err := p.Decrease(decimal.NewFromInt(1), decimal.NewFromInt(2050), clock.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !realized.IsZero() {
		t.Errorf("expected zero realized pnl closing at entry, got %s", realized.String())
	}
	if p.Szi.String() != "1" {
		t.Errorf("expected remaining size 1, got %s", p.Szi.String())
	}
}

// Unrealized PnL on long 1 @ entry 2000, mark 2100.
func TestUnrealizedPnLLong(t *testing.T) {
	p := &Position{Coin: "ETH", Szi: decimal.NewFromInt(1), EntryPx: decimal.NewFromInt(2000)}

	got := p.UnrealizedPnLAt(decimal.NewFromInt(2100))
	if got.String() != "100" {
		t.Errorf("expected unrealized 100, got %s", got.String())
	}
}

func TestUnrealizedPnLShortAsymmetry(t *testing.T) {
	p := &Position{Coin: "ETH", Szi: decimal.NewFromInt(-1), EntryPx: decimal.NewFromInt(2000)}

	got := p.UnrealizedPnLAt(decimal.NewFromInt(2100))
	if got.String() != "-100" {
		t.Errorf("expected unrealized -100 for short losing trade, got %s", got.String())
	}
}

func TestSideDerivedFromSzi(t *testing.T) {
	long := Position{Szi: decimal.NewFromInt(1)}
	short := Position{Szi: decimal.NewFromInt(-1)}
	flat := Position{Szi: decimal.Zero}

	if long.Side() != SideBuy {
		t.Errorf("expected long side buy")
	}
	if short.Side() != SideSell {
		t.Errorf("expected short side sell")
	}
	if flat.Side() != SideEmpty {
		t.Errorf("expected flat side empty")
	}
}

func TestDecreaseExceedingSizeFails(t *testing.T) {
	p := &Position{Szi: decimal.NewFromInt(1), EntryPx: decimal.NewFromInt(100)}
	_, err := p.Decrease(decimal.NewFromInt(2), decimal.NewFromInt(100), clock.Now())
	if err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestFullCloseResetsFields(t *testing.T) {
	p := &Position{Szi: decimal.NewFromInt(1), EntryPx: decimal.NewFromInt(100), PositionValue: decimal.NewFromInt(100)}
	_, err := p.Decrease(decimal.NewFromInt(1), decimal.NewFromInt(110), clock.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.EntryPx.IsZero() || !p.PositionValue.IsZero() {
		t.Errorf("expected entry/position value reset to zero on full close")
	}
	if !p.IsClosed() {
		t.Errorf("expected position to report closed")
	}
}

func TestAccountLazyCreateAndDeleteOnClose(t *testing.T) {
	a := NewAccount()

	if _, ok := a.Position("BTC"); ok {
		t.Fatalf("expected no position before first fill")
	}

	_, err := a.ApplyFill("BTC", decimal.NewFromInt(1), decimal.NewFromInt(50000), clock.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.Position("BTC"); !ok {
		t.Fatalf("expected position to exist after first fill")
	}

	realized, err := a.ApplyFill("BTC", decimal.NewFromInt(-1), decimal.NewFromInt(51000), clock.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if realized.String() != "1000" {
		t.Errorf("expected realized pnl 1000, got %s", realized.String())
	}
	if _, ok := a.Position("BTC"); ok {
		t.Errorf("expected position to be deleted after full close")
	}
	if a.TotalRealizedPnL.String() != "1000" {
		t.Errorf("expected account-level realized pnl to accumulate")
	}
}

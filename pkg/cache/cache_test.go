package cache

import (
	"testing"

	"github.com/web3guy0/quantframe/pkg/decimal"
)

func TestAbsentKeyReturnsNotOK(t *testing.T) {
	c := New()
	if _, ok := c.GetTicker("BTC-USD"); ok {
		t.Errorf("expected absent key to return ok=false")
	}
}

func TestWriteThenReadReturnsLatest(t *testing.T) {
	c := New()
	c.SetTicker(Ticker{Symbol: "BTC-USD", Last: decimal.NewFromInt(100)})
	c.SetTicker(Ticker{Symbol: "BTC-USD", Last: decimal.NewFromInt(101)})

	got, ok := c.GetTicker("BTC-USD")
	if !ok {
		t.Fatalf("expected ticker present")
	}
	if got.Last.String() != "101" {
		t.Errorf("expected latest write to win, got %s", got.Last.String())
	}
}

func TestBalanceRoundTrip(t *testing.T) {
	c := New()
	c.SetBalance(Balance{Asset: "USD", Available: decimal.NewFromInt(500)})

	got, ok := c.GetBalance("USD")
	if !ok || got.Available.String() != "500" {
		t.Errorf("unexpected balance round trip: %+v ok=%v", got, ok)
	}
}

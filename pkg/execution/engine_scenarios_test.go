package execution

import (
	"testing"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/order"
)

func newTestEngine(cfg RiskConfig) (*Engine, *fakeClient, *bus.Bus) {
	b := bus.New()
	store := order.NewStore()
	e := NewEngine(cfg, b, store)
	client := newFakeClient()
	e.SetClient(client)
	return e, client, b
}

func TestSubmitOrderRequiresRunning(t *testing.T) {
	e, _, _ := newTestEngine(RiskConfig{})

	result, err := e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Errorf("expected submission to fail while stopped")
	}
}

func TestSubmitOrderHappyPath(t *testing.T) {
	e, _, b := newTestEngine(RiskConfig{})
	if err := e.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var published bool
	b.Subscribe(bus.TopicOrderSubmitted, func(bus.Event) { published = true })

	result, err := e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected submission to succeed, got %s", result.ErrorMessage)
	}
	if !published {
		t.Errorf("expected order.submitted to be published")
	}
}

func TestSubmitOrderDuplicateClientID(t *testing.T) {
	e, _, _ := newTestEngine(RiskConfig{})
	_ = e.Start()

	req := OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)}
	first, _ := e.SubmitOrder(req)
	if !first.Success {
		t.Fatalf("expected first submission to succeed")
	}

	second, err := e.SubmitOrder(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Success {
		t.Errorf("expected duplicate client order id to fail")
	}
}

func TestSubmitOrderRiskLimitMaxSize(t *testing.T) {
	e, _, _ := newTestEngine(RiskConfig{MaxOrderSize: decimal.NewFromInt(1)})
	_ = e.Start()

	result, err := e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Errorf("expected oversized order to be rejected by risk gate")
	}
}

func TestSubmitOrderRiskLimitAllowedSymbols(t *testing.T) {
	e, _, _ := newTestEngine(RiskConfig{AllowedSymbols: map[string]bool{"ETH-USD": true}})
	_ = e.Start()

	result, _ := e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)})
	if result.Success {
		t.Errorf("expected disallowed symbol to be rejected")
	}
}

func TestCancelOrderIdempotentWhenAbsent(t *testing.T) {
	e, _, _ := newTestEngine(RiskConfig{})
	_ = e.Start()

	if err := e.CancelOrder("does-not-exist"); err != nil {
		t.Errorf("expected idempotent cancel of unknown order, got %v", err)
	}
}

func TestCancelOrderPublishesInstrumentID(t *testing.T) {
	e, _, b := newTestEngine(RiskConfig{})
	_ = e.Start()

	_, _ = e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)})

	var gotSymbol string
	b.Subscribe(bus.TopicOrderCancelled, func(e bus.Event) {
		gotSymbol = e.(bus.OrderCancelled).Order.Symbol
	})

	if err := e.CancelOrder("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSymbol != "BTC-USD" {
		t.Errorf("expected order.cancelled to carry the instrument id, got %q", gotSymbol)
	}
}

func TestRecoverOrdersMigratesFinalOrders(t *testing.T) {
	e, client, _ := newTestEngine(RiskConfig{})
	_ = e.Start()

	_, _ = e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)})
	client.statuses["A"] = order.StatusFilled

	report := e.RecoverOrders()
	if report.Checked != 1 || report.Closed != 1 {
		t.Errorf("expected 1 checked/closed, got %+v", report)
	}
}

func TestCheckTimeoutOrdersCancelsStale(t *testing.T) {
	e, _, _ := newTestEngine(RiskConfig{})
	_ = e.Start()

	_, _ = e.SubmitOrder(OrderRequest{ClientOrderID: "A", Symbol: "BTC-USD", Quantity: decimal.NewFromInt(1)})

	report := e.CheckTimeoutOrders(TimeoutConfig{TimeoutMs: -1, AutoCancel: true})
	if report.TimeoutOrders != 1 || report.OrdersCancelled != 1 {
		t.Errorf("expected stale order to be counted and cancelled, got %+v", report)
	}
}

package dataengine

import (
	"sync"
	"testing"
	"time"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/cache"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

type fakeProvider struct {
	mu        sync.Mutex
	name      string
	buffer    []Tick
	subs      []string
	unsubs    []string
	connected bool
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{name: name}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *fakeProvider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
}

func (p *fakeProvider) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakeProvider) Subscribe(symbol string, _ Kind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, symbol)
	return nil
}

func (p *fakeProvider) Unsubscribe(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsubs = append(p.unsubs, symbol)
	return nil
}

func (p *fakeProvider) Poll() []Tick {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.buffer
	p.buffer = nil
	return out
}

func (p *fakeProvider) push(t Tick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = append(p.buffer, t)
}

func TestPollUpdatesCacheAndPublishes(t *testing.T) {
	b := bus.New()
	c := cache.New()
	e := New(b, c)

	p := newFakeProvider("fake")
	e.AddProvider(p)

	var published int
	b.Subscribe(bus.TopicMarketTicker, func(bus.Event) { published++ })

	if err := e.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer e.Stop()

	p.push(Tick{Symbol: "BTC-USD", Price: decimal.NewFromInt(100), Timestamp: time.Now()})

	if n := e.Poll(); n != 1 {
		t.Fatalf("expected 1 tick processed, got %d", n)
	}
	if published != 1 {
		t.Errorf("expected 1 market.ticker publish, got %d", published)
	}

	ticker, ok := c.GetTicker("BTC-USD")
	if !ok {
		t.Fatal("expected cache to hold BTC-USD ticker")
	}
	if !ticker.Last.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected cached last price 100, got %s", ticker.Last)
	}
}

func TestPollDrainsBufferOnce(t *testing.T) {
	b := bus.New()
	c := cache.New()
	e := New(b, c)

	p := newFakeProvider("fake")
	e.AddProvider(p)
	_ = e.Start()
	defer e.Stop()

	p.push(Tick{Symbol: "BTC-USD", Price: decimal.NewFromInt(1), Timestamp: time.Now()})
	p.push(Tick{Symbol: "BTC-USD", Price: decimal.NewFromInt(2), Timestamp: time.Now()})

	if n := e.Poll(); n != 2 {
		t.Errorf("expected first poll to drain 2 ticks, got %d", n)
	}
	if n := e.Poll(); n != 0 {
		t.Errorf("expected second poll to drain nothing, got %d", n)
	}
}

func TestStartConnectsProviders(t *testing.T) {
	b := bus.New()
	c := cache.New()
	e := New(b, c)

	p := newFakeProvider("fake")
	e.AddProvider(p)
	_ = e.Start()
	defer e.Stop()

	if !p.IsConnected() {
		t.Errorf("expected provider to be connected after Start")
	}
}

func TestSubscribeForwardsToEveryProvider(t *testing.T) {
	b := bus.New()
	c := cache.New()
	e := New(b, c)

	p1 := newFakeProvider("one")
	p2 := newFakeProvider("two")
	e.AddProvider(p1)
	e.AddProvider(p2)
	_ = e.Start()
	defer e.Stop()

	e.Subscribe("ETH-USD", KindTicker)

	if len(p1.subs) != 1 || p1.subs[0] != "ETH-USD" {
		t.Errorf("expected provider one to receive subscribe, got %v", p1.subs)
	}
	if len(p2.subs) != 1 || p2.subs[0] != "ETH-USD" {
		t.Errorf("expected provider two to receive subscribe, got %v", p2.subs)
	}
}

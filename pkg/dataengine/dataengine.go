// Package dataengine aggregates market-data providers: a Provider
// abstraction plus an engine that normalizes polled ticks onto the bus
// and keeps the cache warm. Venue-specific wire handling lives entirely
// inside each Provider; the engine only ever sees the generic Bar/Tick
// model. Streaming providers buffer frames internally and hand them over
// in batches through Poll, so the engine thread stays the only place
// bus publishes happen.
package dataengine

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/cache"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Kind selects which data stream a subscription covers.
type Kind int

const (
	KindTicker Kind = iota
	KindOrderBook
	KindTrade
)

// Tick is a single trade or quote update for a symbol. Timestamps from one
// provider are monotonically non-decreasing.
type Tick struct {
	Symbol    string
	Price     decimal.Decimal
	Size      decimal.Decimal
	Timestamp time.Time
}

// Bar is one OHLCV candle for a symbol over Interval.
type Bar struct {
	Symbol    string
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	Interval  time.Duration
	Timestamp time.Time
}

// Provider is a single market-data source. Streaming implementations run
// their own read loop and buffer updates until the next Poll; Connect must
// not block past the initial dial.
type Provider interface {
	Name() string
	Connect() error
	Disconnect()
	IsConnected() bool
	Subscribe(symbol string, kind Kind) error
	Unsubscribe(symbol string) error
	Poll() []Tick
}

// Engine aggregates providers, draining each one's Poll batch onto the bus
// and into the cache.
type Engine struct {
	mu        sync.Mutex
	providers []Provider
	cache     *cache.Cache
	bus       *bus.Bus
	running   bool
	stopCh    chan struct{}

	pollInterval time.Duration
}

// New creates an Engine that publishes onto b and warms c.
func New(b *bus.Bus, c *cache.Cache) *Engine {
	return &Engine{bus: b, cache: c}
}

// SetPollInterval enables a background polling loop at the given cadence.
// Without one, polling only happens when the owner calls Poll explicitly
// (the sync live engine's tick does exactly that).
func (e *Engine) SetPollInterval(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pollInterval = d
}

// AddProvider registers a provider. Must be called before Start.
func (e *Engine) AddProvider(p Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.providers = append(e.providers, p)
}

// Start connects every registered provider. Providers that fail to connect
// are logged and skipped; their own reconnect policy decides what happens
// next.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.stopCh = make(chan struct{})
	providers := append([]Provider(nil), e.providers...)
	interval := e.pollInterval
	stopCh := e.stopCh
	e.mu.Unlock()

	for _, p := range providers {
		if err := p.Connect(); err != nil {
			log.Error().Err(err).Str("provider", p.Name()).Msg("data provider failed to connect")
		}
	}

	if interval > 0 {
		go e.pollLoop(interval, stopCh)
	}

	log.Info().Int("providers", len(providers)).Msg("data engine started")
	return nil
}

// Stop disconnects every registered provider and stops the poll loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	providers := append([]Provider(nil), e.providers...)
	e.mu.Unlock()

	for _, p := range providers {
		p.Disconnect()
	}
	log.Info().Msg("data engine stopped")
}

// Subscribe forwards a symbol subscription to every provider.
func (e *Engine) Subscribe(symbol string, kind Kind) {
	e.mu.Lock()
	providers := append([]Provider(nil), e.providers...)
	e.mu.Unlock()

	for _, p := range providers {
		if err := p.Subscribe(symbol, kind); err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("subscribe failed")
		}
	}
}

// Unsubscribe forwards a symbol unsubscription to every provider.
func (e *Engine) Unsubscribe(symbol string) {
	e.mu.Lock()
	providers := append([]Provider(nil), e.providers...)
	e.mu.Unlock()

	for _, p := range providers {
		if err := p.Unsubscribe(symbol); err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("unsubscribe failed")
		}
	}
}

// Poll drains one batch from every provider, updating the cache and
// publishing each tick on market.ticker. Returns the number of ticks
// processed.
func (e *Engine) Poll() int {
	e.mu.Lock()
	providers := append([]Provider(nil), e.providers...)
	e.mu.Unlock()

	total := 0
	for _, p := range providers {
		for _, tick := range p.Poll() {
			e.cache.SetTicker(cache.Ticker{
				Symbol:    tick.Symbol,
				Last:      tick.Price,
				Timestamp: tick.Timestamp.UnixMilli(),
			})
			e.bus.Publish(bus.Opaque{TopicName: bus.TopicMarketTicker, Payload: tick})
			total++
		}
	}
	return total
}

func (e *Engine) pollLoop(interval time.Duration, stopCh chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			e.Poll()
		}
	}
}

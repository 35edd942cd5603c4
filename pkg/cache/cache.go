// Package cache holds the in-memory last-known-state of market data,
// positions and balances. Writes are idempotent-by-latest; reads never
// block and an absent key returns ok=false
package cache

import (
	"sync"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Ticker is the last-known best bid/ask/last-trade snapshot for a symbol.
type Ticker struct {
	Symbol    string
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Last      decimal.Decimal
	Timestamp int64
}

// OrderBookLevel is one price/size pair in a book snapshot.
type OrderBookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is the last-known depth snapshot for a symbol.
type OrderBook struct {
	Symbol    string
	Bids      []OrderBookLevel
	Asks      []OrderBookLevel
	Timestamp int64
}

// Balance is the last-known account balance snapshot.
type Balance struct {
	Asset     string
	Available decimal.Decimal
	Total     decimal.Decimal
}

// Cache is a key-value last-known-state store keyed by symbol and kind.
type Cache struct {
	mu sync.RWMutex

	tickers    map[string]Ticker
	orderbooks map[string]OrderBook
	positions  map[string]any // avoids an import cycle with pkg/position
	balances   map[string]Balance

	bus *bus.Bus
}

// New creates an empty Cache. Attach a bus afterwards to self-populate from
// market-data topics; without one, callers must write directly.
func New() *Cache {
	return &Cache{
		tickers:    make(map[string]Ticker),
		orderbooks: make(map[string]OrderBook),
		positions:  make(map[string]any),
		balances:   make(map[string]Balance),
	}
}

// Attach subscribes the cache to the bus topics that carry market data, so
// writes happen automatically as events are published.
func (c *Cache) Attach(b *bus.Bus) {
	c.mu.Lock()
	c.bus = b
	c.mu.Unlock()

	b.Subscribe(bus.TopicMarketTicker, func(e bus.Event) {
		if o, ok := e.(bus.Opaque); ok {
			if t, ok := o.Payload.(Ticker); ok {
				c.SetTicker(t)
			}
		}
	})
	b.Subscribe(bus.TopicMarketOrderBook, func(e bus.Event) {
		if o, ok := e.(bus.Opaque); ok {
			if ob, ok := o.Payload.(OrderBook); ok {
				c.SetOrderBook(ob)
			}
		}
	})
}

func (c *Cache) SetTicker(t Ticker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickers[t.Symbol] = t
}

func (c *Cache) GetTicker(symbol string) (Ticker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tickers[symbol]
	return t, ok
}

func (c *Cache) SetOrderBook(ob OrderBook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderbooks[ob.Symbol] = ob
}

func (c *Cache) GetOrderBook(symbol string) (OrderBook, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ob, ok := c.orderbooks[symbol]
	return ob, ok
}

// SetPosition stores an opaque position snapshot (concrete type lives in
// pkg/position; kept as `any` here to avoid a cache <-> position import
// cycle).
func (c *Cache) SetPosition(coin string, pos any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[coin] = pos
}

func (c *Cache) GetPosition(coin string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.positions[coin]
	return p, ok
}

func (c *Cache) SetBalance(b Balance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[b.Asset] = b
}

func (c *Cache) GetBalance(asset string) (Balance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.balances[asset]
	return b, ok
}

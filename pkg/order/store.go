package order

import (
	"fmt"
	"sync"
)

// Store is a dual-indexed, active/history-partitioned order table. A
// client_order_id is required and unique across the store's lifetime;
// exactly one partition holds any given order at any time.
//
// Store is safe for concurrent use: monitoring goroutines read it while
// the engine mutates it, so the lock is unconditional here rather than
// pushed onto callers.
type Store struct {
	mu            sync.Mutex
	clientIndex   map[string]*Order
	exchangeIndex map[uint64]*Order
	active        []*Order
	history       []*Order
}

// NewStore creates an empty order store.
func NewStore() *Store {
	return &Store{
		clientIndex:   make(map[string]*Order),
		exchangeIndex: make(map[uint64]*Order),
	}
}

// Add inserts a new order. ClientOrderID must be set and must not already
// exist in the store.
func (s *Store) Add(o *Order) error {
	if o.ClientOrderID == "" {
		return fmt.Errorf("order: client_order_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clientIndex[o.ClientOrderID]; exists {
		return fmt.Errorf("order: duplicate client_order_id %q", o.ClientOrderID)
	}

	s.clientIndex[o.ClientOrderID] = o
	if o.ExchangeOrderID != nil {
		s.exchangeIndex[*o.ExchangeOrderID] = o
	}
	s.active = append(s.active, o)
	return nil
}

// Update re-indexes ExchangeOrderID if it has since been set, and migrates
// the order from active to history if its status has become final.
func (s *Store) Update(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.clientIndex[clientID]
	if !ok {
		return fmt.Errorf("order: unknown client_order_id %q", clientID)
	}

	if o.ExchangeOrderID != nil {
		if _, indexed := s.exchangeIndex[*o.ExchangeOrderID]; !indexed {
			s.exchangeIndex[*o.ExchangeOrderID] = o
		}
	}

	if o.Status.IsFinal() {
		s.migrateToHistory(o)
	}

	return nil
}

// migrateToHistory removes o from active (swap-remove, O(1)) and appends it
// to history. Caller must hold s.mu.
func (s *Store) migrateToHistory(o *Order) {
	for i, a := range s.active {
		if a == o {
			last := len(s.active) - 1
			s.active[i] = s.active[last]
			s.active[last] = nil
			s.active = s.active[:last]
			break
		}
	}
	s.history = append(s.history, o)
}

// GetByClientID looks up an order by its client id.
func (s *Store) GetByClientID(clientID string) (*Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.clientIndex[clientID]
	return o, ok
}

// GetByExchangeID looks up an order by its exchange id.
func (s *Store) GetByExchangeID(exchangeID uint64) (*Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.exchangeIndex[exchangeID]
	return o, ok
}

// Active returns a snapshot of the active partition.
func (s *Store) Active() []*Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Order, len(s.active))
	copy(out, s.active)
	return out
}

// History returns a snapshot of the history partition.
func (s *Store) History() []*Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Order, len(s.history))
	copy(out, s.history)
	return out
}

// Deinit drops every index and partition, releasing all order references
// in one step.
func (s *Store) Deinit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientIndex = make(map[string]*Order)
	s.exchangeIndex = make(map[uint64]*Order)
	s.active = nil
	s.history = nil
}

package hotreload

import (
	"sync"
	"sync/atomic"
)

// SafeReloadScheduler defers applying a validated config until the engine
// announces it is between ticks. The "in-tick" flag is
// set and cleared by the strategy host around its per-bar/per-tick
// callback; Apply is only ever invoked once that flag reads false.
type SafeReloadScheduler struct {
	inTick int32 // atomic, sequentially consistent

	mu      sync.Mutex
	pending *HotReloadConfig // owned copy handed over by the watcher

	apply func(*HotReloadConfig) error
}

// NewSafeReloadScheduler wires the scheduler to the function that actually
// applies a config (typically Reloadable.UpdateParams).
func NewSafeReloadScheduler(apply func(*HotReloadConfig) error) *SafeReloadScheduler {
	return &SafeReloadScheduler{apply: apply}
}

// BeginTick marks the engine as inside a tick/bar boundary. Scheduled
// configs are held back until EndTick.
func (s *SafeReloadScheduler) BeginTick() {
	atomic.StoreInt32(&s.inTick, 1)
}

// EndTick marks the engine as between ticks and, if a config is pending,
// applies it immediately.
func (s *SafeReloadScheduler) EndTick() error {
	atomic.StoreInt32(&s.inTick, 0)
	return s.drain()
}

// Schedule posts cfg for deferred application. If the engine is currently
// between ticks, it is applied immediately; otherwise it waits for the next
// EndTick.
func (s *SafeReloadScheduler) Schedule(cfg *HotReloadConfig) error {
	s.mu.Lock()
	s.pending = cfg
	s.mu.Unlock()

	if atomic.LoadInt32(&s.inTick) == 0 {
		return s.drain()
	}
	return nil
}

// drain applies and clears a pending config, if any.
func (s *SafeReloadScheduler) drain() error {
	s.mu.Lock()
	cfg := s.pending
	s.pending = nil
	s.mu.Unlock()

	if cfg == nil {
		return nil
	}
	return s.apply(cfg)
}

// Pending reports whether a config is waiting for the next tick boundary.
func (s *SafeReloadScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

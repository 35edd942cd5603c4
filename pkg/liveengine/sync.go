// Package liveengine composes the bus, cache, data engine and execution
// engine into a runnable trading engine: a synchronous variant driven by
// explicit tick calls, and an asynchronous variant driven by re-arming
// timers.
package liveengine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/cache"
	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/execution"
	"github.com/web3guy0/quantframe/pkg/hotreload"
)

// State is the live engine's lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateFailed   State = "failed"
)

// TickCallback is invoked once per tick, after the data engine poll and
// before system.tick publishes.
type TickCallback func(tickNumber uint64)

// SyncEngine is the synchronous Live Trading Engine variant.
type SyncEngine struct {
	mu sync.Mutex

	bus   *bus.Bus
	cache *cache.Cache
	data  *dataengine.Engine
	exec  *execution.Engine

	state     State
	tickCount uint64
	onTick    TickCallback
	reload    *hotreload.SafeReloadScheduler
}

// New wires a SyncEngine over the given components.
func New(b *bus.Bus, c *cache.Cache, d *dataengine.Engine, e *execution.Engine) *SyncEngine {
	return &SyncEngine{bus: b, cache: c, data: d, exec: e, state: StateStopped}
}

// OnTick installs a callback invoked once per Tick call.
func (s *SyncEngine) OnTick(cb TickCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = cb
}

// SetReloadScheduler wires a hot-reload scheduler so Tick marks the
// in-tick boundary the scheduler waits for before applying a pending
// strategy config.
func (s *SyncEngine) SetReloadScheduler(sched *hotreload.SafeReloadScheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload = sched
}

// State returns the current lifecycle state.
func (s *SyncEngine) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start runs component pre-flights and transitions stopped -> starting ->
// running, or -> failed if a pre-flight fails.
func (s *SyncEngine) Start() error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarting
	s.mu.Unlock()

	if err := s.preflight(); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		return fmt.Errorf("liveengine: preflight failed: %w", err)
	}

	if err := s.data.Start(); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		return fmt.Errorf("liveengine: data engine failed to start: %w", err)
	}
	if err := s.exec.Start(); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		return fmt.Errorf("liveengine: execution engine failed to start: %w", err)
	}

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	s.bus.Publish(bus.Opaque{TopicName: bus.TopicLiveEngineStarted, Payload: nil})
	log.Info().Msg("live engine started")
	return nil
}

// preflight validates the engine has everything it needs to run.
func (s *SyncEngine) preflight() error {
	if s.bus == nil || s.cache == nil || s.data == nil || s.exec == nil {
		return fmt.Errorf("liveengine: missing a required component")
	}
	return nil
}

// Stop transitions running -> stopping -> stopped.
func (s *SyncEngine) Stop() {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StateStarting {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	s.mu.Unlock()

	s.exec.Stop()
	s.data.Stop()

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	s.bus.Publish(bus.Opaque{TopicName: bus.TopicLiveEngineStopped, Payload: nil})
	log.Info().Msg("live engine stopped")
}

// Tick polls the data engine once, increments the tick counter, invokes the
// optional callback, and publishes system.tick.
func (s *SyncEngine) Tick() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.tickCount++
	count := s.tickCount
	cb := s.onTick
	reload := s.reload
	s.mu.Unlock()

	if reload != nil {
		reload.BeginTick()
	}

	s.data.Poll()

	if cb != nil {
		cb(count)
	}

	s.bus.Publish(bus.Tick{Timestamp: clock.Now(), TickNumber: count})

	if reload != nil {
		if err := reload.EndTick(); err != nil {
			log.Warn().Err(err).Msg("hot-reload apply failed at tick boundary")
		}
	}
}

// RunTicks calls Tick n times in sequence.
func (s *SyncEngine) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// TickCount returns the number of ticks processed so far.
func (s *SyncEngine) TickCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickCount
}

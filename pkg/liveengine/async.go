package liveengine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/clock"
)

// AsyncTimerConfig configures the engine's two re-arming timers.
type AsyncTimerConfig struct {
	TickIntervalMs      int64
	HeartbeatIntervalMs int64
}

// AsyncEngine is the same composition as SyncEngine, driven instead by two
// independently re-arming timers. Cancellation is cooperative:
// a running flag is checked inside each timer callback, and once cleared
// the callback returns without re-arming.
type AsyncEngine struct {
	sync *SyncEngine
	cfg  AsyncTimerConfig

	running   atomic.Bool
	wg        sync.WaitGroup
	heartbeat atomic.Uint64
}

// NewAsync wraps sync with timer-driven ticking.
func NewAsync(sync *SyncEngine, cfg AsyncTimerConfig) *AsyncEngine {
	return &AsyncEngine{sync: sync, cfg: cfg}
}

// Start starts the wrapped SyncEngine and arms both timers.
func (a *AsyncEngine) Start() error {
	if err := a.sync.Start(); err != nil {
		return err
	}

	a.running.Store(true)
	a.wg.Add(2)
	go a.runTickTimer()
	go a.runHeartbeatTimer()
	return nil
}

// Stop clears the running flag; in-flight timer callbacks observe it and
// disarm on their next firing, then Stop waits for both loops to exit
// before stopping the wrapped engine.
func (a *AsyncEngine) Stop() {
	a.running.Store(false)
	a.wg.Wait()
	a.sync.Stop()
}

// runTickTimer re-arms tick_timer at tick_interval_ms until stopped.
func (a *AsyncEngine) runTickTimer() {
	defer a.wg.Done()

	interval := time.Duration(a.cfg.TickIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		<-timer.C
		if !a.running.Load() {
			return
		}
		a.sync.Tick()
		timer.Reset(interval)
	}
}

// runHeartbeatTimer re-arms heartbeat_timer at heartbeat_interval_ms until
// stopped, publishing system.heartbeat each firing.
func (a *AsyncEngine) runHeartbeatTimer() {
	defer a.wg.Done()

	interval := time.Duration(a.cfg.HeartbeatIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 10 * time.Second
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		<-timer.C
		if !a.running.Load() {
			return
		}
		a.heartbeat.Add(1)
		a.sync.bus.Publish(bus.Opaque{TopicName: bus.TopicSystemHeartbeat, Payload: clock.Now()})
		timer.Reset(interval)
	}
}

// HeartbeatCount returns the number of heartbeats emitted so far.
func (a *AsyncEngine) HeartbeatCount() uint64 {
	return a.heartbeat.Load()
}

// State delegates to the wrapped SyncEngine.
func (a *AsyncEngine) State() State { return a.sync.State() }

package hotreload

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Manager watches a config file by (mtime, size) and drives the
// parse -> validate -> backup -> schedule-or-apply pipeline on change.
type Manager struct {
	path           string
	watchInterval  time.Duration
	backupOnReload bool
	reloadOnTick   bool
	reloadable     Reloadable
	scheduler      *SafeReloadScheduler

	mu          sync.Mutex
	lastModTime time.Time
	lastSize    int64

	reloadCount  int64 // atomic
	errorCount   int64 // atomic
	lastReloadMs int64 // atomic, unix millis

	stop chan struct{}
	done chan struct{}
}

// Config configures a Manager.
type Config struct {
	Path           string
	WatchInterval  time.Duration // defaults to 2s
	BackupOnReload bool
	ReloadOnTick   bool
}

// NewManager wires a Manager over a Reloadable strategy host. scheduler may
// be nil when ReloadOnTick is false (config applies immediately).
func NewManager(cfg Config, reloadable Reloadable, scheduler *SafeReloadScheduler) *Manager {
	interval := cfg.WatchInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Manager{
		path:           cfg.Path,
		watchInterval:  interval,
		backupOnReload: cfg.BackupOnReload,
		reloadOnTick:   cfg.ReloadOnTick,
		reloadable:     reloadable,
		scheduler:      scheduler,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the background watch goroutine. It stats the file every
// WatchInterval and calls TriggerReload on a (mtime, size) change.
func (m *Manager) Start() {
	go m.watchLoop()
}

// Stop signals the watch goroutine to exit and waits for it to finish.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Manager) watchLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			info, err := os.Stat(m.path)
			if err != nil {
				log.Warn().Err(err).Str("path", m.path).Msg("hotreload: stat failed")
				continue
			}

			m.mu.Lock()
			changed := !info.ModTime().Equal(m.lastModTime) || info.Size() != m.lastSize
			m.lastModTime = info.ModTime()
			m.lastSize = info.Size()
			m.mu.Unlock()

			if !changed {
				continue
			}
			if err := m.TriggerReload(); err != nil {
				atomic.AddInt64(&m.errorCount, 1)
				log.Error().Err(err).Str("path", m.path).Msg("hotreload: reload failed")
			}
		}
	}
}

// TriggerReload executes the full reload pipeline: parse, validate,
// backup, schedule-or-apply. It is exported so callers can
// force an immediate reload outside the poll cadence (e.g. in tests).
func (m *Manager) TriggerReload() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("hotreload: read %s: %w", m.path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return err
	}

	if err := Validate(cfg); err != nil {
		return err
	}
	if err := m.reloadable.ValidateParams(cfg); err != nil {
		return fmt.Errorf("hotreload: strategy rejected config: %w", err)
	}

	if m.backupOnReload {
		if err := m.backup(); err != nil {
			log.Warn().Err(err).Msg("hotreload: backup failed, proceeding with reload anyway")
		}
	}

	if m.reloadOnTick && m.scheduler != nil {
		if err := m.scheduler.Schedule(cfg); err != nil {
			return err
		}
	} else if err := m.reloadable.UpdateParams(cfg); err != nil {
		return err
	}

	atomic.AddInt64(&m.reloadCount, 1)
	atomic.StoreInt64(&m.lastReloadMs, time.Now().UnixMilli())
	log.Info().Str("strategy", cfg.Strategy).Int("version", cfg.Version).Msg("hotreload: config applied")
	return nil
}

// backup copies the current file to <path>.backup.<epoch_ms>. Old backups
// are never rotated; cleanup is left to the operator.
func (m *Manager) backup() error {
	src, err := os.Open(m.path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(fmt.Sprintf("%s.backup.%d", m.path, time.Now().UnixMilli()))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// Stats reports the reload counter, error counter and last-reload time.
func (m *Manager) Stats() (reloads, errors int64, lastReload time.Time) {
	reloads = atomic.LoadInt64(&m.reloadCount)
	errors = atomic.LoadInt64(&m.errorCount)
	ms := atomic.LoadInt64(&m.lastReloadMs)
	if ms > 0 {
		lastReload = time.UnixMilli(ms)
	}
	return
}

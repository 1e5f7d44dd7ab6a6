package cache

import (
	"time"

	"go.uber.org/zap"
)

// DefaultSaveInterval is how often the maintainer persists the cache.
const DefaultSaveInterval = 5 * time.Second

// MaintainerOptions configures the background maintainer.
type MaintainerOptions struct {
	SaveInterval   time.Duration // default DefaultSaveInterval
	CleanupEnabled bool
	CleanupDays    int
	Logger         *zap.Logger
}

// Maintainer is the background loop that periodically persists the
// cache and, when enabled, evicts entries by age. It runs as a single
// goroutine started with the server and joined at shutdown.
type Maintainer struct {
	cache          *Cache
	saveInterval   time.Duration
	cleanupEnabled bool
	cleanupDays    int
	logger         *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// NewMaintainer builds a maintainer for the cache. Start must be called
// to begin the loop.
func NewMaintainer(c *Cache, opts MaintainerOptions) *Maintainer {
	saveInterval := opts.SaveInterval
	if saveInterval <= 0 {
		saveInterval = DefaultSaveInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Maintainer{
		cache:          c,
		saveInterval:   saveInterval,
		cleanupEnabled: opts.CleanupEnabled && opts.CleanupDays > 0,
		cleanupDays:    opts.CleanupDays,
		logger:         logger,
	}
}

// CleanupInterval returns how often age-based eviction runs: a tenth of
// the retention window, but no more often than hourly.
func (m *Maintainer) CleanupInterval() time.Duration {
	interval := time.Duration(m.cleanupDays) * 86400 * time.Second / 10
	if interval < time.Hour {
		interval = time.Hour
	}
	return interval
}

// Start launches the maintenance loop. Calling Start on a running
// maintainer is a no-op.
func (m *Maintainer) Start() {
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run()
}

// Stop signals the loop to exit and waits for it to finish. The cache
// must not be closed before Stop returns.
func (m *Maintainer) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
	m.done = nil
}

func (m *Maintainer) run() {
	defer close(m.done)

	saveTicker := time.NewTicker(m.saveInterval)
	defer saveTicker.Stop()

	var cleanupC <-chan time.Time
	if m.cleanupEnabled {
		cleanupTicker := time.NewTicker(m.CleanupInterval())
		defer cleanupTicker.Stop()
		cleanupC = cleanupTicker.C
		m.logger.Info("cache cleanup enabled",
			zap.Int("days", m.cleanupDays),
			zap.Duration("interval", m.CleanupInterval()))
	}

	for {
		select {
		case <-m.stop:
			// Final save so at most one interval of writes is at risk.
			if err := m.cache.Save(); err != nil {
				m.logger.Warn("final cache save failed", zap.Error(err))
			}
			return

		case <-saveTicker.C:
			if err := m.cache.Save(); err != nil {
				m.logger.Warn("periodic cache save failed", zap.Error(err))
			}

		case <-cleanupC:
			removed, err := m.cache.Cleanup(m.cleanupDays)
			if err != nil {
				m.logger.Warn("cache cleanup failed", zap.Error(err))
				continue
			}
			m.logger.Info("cache cleanup finished",
				zap.Int("removed", removed), zap.Int("days", m.cleanupDays))
		}
	}
}

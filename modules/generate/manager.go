package generate

import (
	"log"
	"sync"
	"time"

	"affiliate-video-server/modules/common/model"
)

// Manager is the in-memory registry of run engines. HTTP handlers reach
// active and recently finished runs here; anything older is served from
// the database.
type Manager struct {
	mu      sync.RWMutex
	engines map[string]*managedEngine
}

type managedEngine struct {
	engine   *Engine
	lastSeen time.Time
}

func NewManager() *Manager {
	return &Manager{
		engines: make(map[string]*managedEngine),
	}
}

// Register adds an engine under its run ID.
func (m *Manager) Register(runID string, engine *Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engines[runID] = &managedEngine{engine: engine, lastSeen: time.Now()}
	log.Printf("✅ [Manager] Registered run %s (%d active)", runID, len(m.engines))
}

// Get returns the engine for a run, when it is still in memory. It
// refreshes lastSeen, so it takes the write lock.
func (m *Manager) Get(runID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	me, ok := m.engines[runID]
	if !ok {
		return nil, false
	}
	me.lastSeen = time.Now()
	return me.engine, true
}

// Count returns the number of registered runs.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

// CleanupStale drops engines untouched for longer than maxAge. Their
// state stays readable from the database.
func (m *Manager) CleanupStale(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for runID, me := range m.engines {
		if me.lastSeen.Before(cutoff) && me.engine.Status() != model.StatusProcessing {
			delete(m.engines, runID)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 [Manager] Removed %d stale runs (%d remaining)", removed, len(m.engines))
	}
	return removed
}

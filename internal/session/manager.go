package session

import (
	"log/slog"
	"sync"
)

// Manager tracks live conversations so shutdown can end them cleanly
// and health checks can report a count.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*Orchestrator
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{active: make(map[string]*Orchestrator)}
}

// Register adds a conversation.
func (m *Manager) Register(o *Orchestrator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[o.ID()] = o
	slog.Info("voice session registered", "session_id", o.ID(), "active", len(m.active))
}

// Unregister removes a conversation if it is still the registered one.
func (m *Manager) Unregister(o *Orchestrator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.active[o.ID()]; ok && current == o {
		delete(m.active, o.ID())
		slog.Info("voice session unregistered", "session_id", o.ID(), "active", len(m.active))
	}
}

// Get returns the conversation with the given ID, or nil.
func (m *Manager) Get(id string) *Orchestrator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[id]
}

// Count returns the number of live conversations.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// CloseAll ends every live conversation. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	orchestrators := make([]*Orchestrator, 0, len(m.active))
	for _, o := range m.active {
		orchestrators = append(orchestrators, o)
	}
	m.active = make(map[string]*Orchestrator)
	m.mu.Unlock()

	for _, o := range orchestrators {
		o.Stop()
	}
}

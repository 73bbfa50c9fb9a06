package storage

import (
	"context"
	"sync"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// Memory is an in-process StatusListStorage, primarily for tests and
// single-process deployments.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*Snapshot
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*Snapshot)}
}

func (m *Memory) Load(ctx context.Context, listID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.data[listID]
	if !ok {
		return nil, trusterrors.NotFoundError("status list %q not found", listID)
	}
	cp := *snap
	return &cp, nil
}

func (m *Memory) Save(ctx context.Context, listID string, snapshot *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snapshot
	m.data[listID] = &cp
	return nil
}

func (m *Memory) ListAll(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

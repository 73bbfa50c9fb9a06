package audit

import (
	"context"
	"sync"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// MemoryStorage is an in-process Storage, for tests and single-process
// deployments.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryStorage builds an empty in-memory audit log store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Append(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemoryStorage) Get(ctx context.Context, seq uint64) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if seq >= uint64(len(m.entries)) {
		return nil, trusterrors.NotFoundError("audit entry %d not found", seq)
	}
	cp := *m.entries[seq]
	return &cp, nil
}

func (m *MemoryStorage) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if fromSeq > toSeq || toSeq >= uint64(len(m.entries)) {
		return nil, trusterrors.NotFoundError("audit range [%d,%d] out of bounds (len=%d)", fromSeq, toSeq, len(m.entries))
	}
	out := make([]*Entry, 0, toSeq-fromSeq+1)
	for i := fromSeq; i <= toSeq; i++ {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStorage) Tail(ctx context.Context) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, trusterrors.NotFoundError("audit log is empty")
	}
	cp := *m.entries[len(m.entries)-1]
	return &cp, nil
}

// Package memory is the in-process SnapshotStore. It is the only store the
// service ships: status is ephemeral by design and rebuilt by the next cycle.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gfdev10/modelpulse/internal/domain"
	"github.com/gfdev10/modelpulse/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	snaps map[domain.TargetKey]domain.StatusSnapshot
}

func New() *Store {
	return &Store{snaps: make(map[domain.TargetKey]domain.StatusSnapshot)}
}

func (m *Store) Set(ctx context.Context, snap domain.StatusSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Key] = snap
	return nil
}

func (m *Store) Get(ctx context.Context, key domain.TargetKey) (*domain.StatusSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snaps[key]
	if !ok {
		return nil, nil
	}
	cp := s
	return &cp, nil
}

func (m *Store) All(ctx context.Context) ([]domain.StatusSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.StatusSnapshot, 0, len(m.snaps))
	for _, s := range m.snaps {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

package saga

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("saga not found")

type Store interface {
	Get(ctx context.Context, orderID string) (*Saga, error)
	Put(ctx context.Context, s *Saga) error
	List(ctx context.Context) ([]*Saga, error)
	ByState(ctx context.Context, state State) ([]*Saga, error)
}

// MemoryStore keeps sagas in a map. Copies go in and out so callers never
// share the stored value.
type MemoryStore struct {
	mu    sync.RWMutex
	sagas map[string]Saga
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sagas: make(map[string]Saga)}
}

func (m *MemoryStore) Get(_ context.Context, orderID string) (*Saga, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sagas[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := s
	cp.StepsCompleted = append([]string(nil), s.StepsCompleted...)
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, s *Saga) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.StepsCompleted = append([]string(nil), s.StepsCompleted...)
	m.sagas[s.OrderID] = cp
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Saga, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Saga, 0, len(m.sagas))
	for _, s := range m.sagas {
		cp := s
		cp.StepsCompleted = append([]string(nil), s.StepsCompleted...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ByState(ctx context.Context, state State) ([]*Saga, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.State == state {
			out = append(out, s)
		}
	}
	return out, nil
}

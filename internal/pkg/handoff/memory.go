package handoff

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryStore struct {
	cache *expirable.LRU[string, SignedPayload]
}

// NewMemoryStore keeps at most size payloads for ttl each.
func NewMemoryStore(size int, ttl time.Duration) Store {
	return &memoryStore{
		cache: expirable.NewLRU[string, SignedPayload](size, nil, ttl),
	}
}

func (m *memoryStore) Name() string {
	return "memory"
}

func (m *memoryStore) Deliver(_ context.Context, p *SignedPayload) error {
	m.cache.Add(p.ID, *p)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*SignedPayload, error) {
	p, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}

	return &p, nil
}

package risk

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory assessment store for demo/test use.
type MemoryStore struct {
	mu          sync.RWMutex
	assessments map[string][]*Assessment // identity key → assessments in order
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments: make(map[string][]*Assessment),
	}
}

func (s *MemoryStore) Record(ctx context.Context, assessment *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := *assessment
	a.Anomalies = append([]string(nil), assessment.Anomalies...)
	s.assessments[assessment.IdentityKey] = append(s.assessments[assessment.IdentityKey], &a)
	return nil
}

func (s *MemoryStore) ListByKey(ctx context.Context, identityKey string, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.assessments[identityKey]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}

	// Most recent first.
	result := make([]*Assessment, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		a := *all[i]
		a.Anomalies = append([]string(nil), all[i].Anomalies...)
		result = append(result, &a)
	}
	return result, nil
}

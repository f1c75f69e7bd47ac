package usage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory ledger for demo deployments and tests.
// It mirrors PostgresStore semantics, including append-only ids.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	events map[string][]*Event // identity key → events in insertion order

	// now is swappable so tests can pin the clock for window math.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory usage ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		events: make(map[string][]*Event),
		now:    time.Now,
	}
}

func (s *MemoryStore) Record(ctx context.Context, event *Event) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *event
	e.ID = s.nextID
	e.Sector = sectorOrDefault(e.Sector)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if event.LivenessScore != nil {
		v := *event.LivenessScore
		e.LivenessScore = &v
	}
	s.nextID++

	s.events[e.IdentityKey] = append(s.events[e.IdentityKey], &e)
	return e.ID, nil
}

func (s *MemoryStore) History(ctx context.Context, key string, windowDays int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().UTC().AddDate(0, 0, -windowDays)
	all := s.events[key]

	result := make([]*Event, 0, len(all))
	for _, src := range all {
		if !src.CreatedAt.After(cutoff) {
			continue
		}
		e := *src
		if src.LivenessScore != nil {
			v := *src.LivenessScore
			e.LivenessScore = &v
		}
		result = append(result, &e)
	}

	// Most recent first. Tests seed backdated events out of order, so sort by
	// timestamp rather than trusting insertion order.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Stats(ctx context.Context, key string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().UTC()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.AddDate(0, 0, -7)

	stats := &Stats{IdentityKey: key}
	cases := make(map[string]struct{})
	sectors := make(map[string]struct{})

	for _, e := range s.events[key] {
		stats.TotalUses++
		if e.CaseID != "" {
			cases[e.CaseID] = struct{}{}
		}
		sectors[e.Sector] = struct{}{}
		if e.CreatedAt.After(dayAgo) {
			stats.Uses24h++
		}
		if e.CreatedAt.After(weekAgo) {
			stats.Uses7d++
		}
		if stats.FirstSeen.IsZero() || e.CreatedAt.Before(stats.FirstSeen) {
			stats.FirstSeen = e.CreatedAt
		}
		if e.CreatedAt.After(stats.LastSeen) {
			stats.LastSeen = e.CreatedAt
		}
	}

	stats.UniqueCases = len(cases)
	stats.UniqueSectors = len(sectors)
	return stats, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]*Event)
	s.nextID = 1
	return nil
}

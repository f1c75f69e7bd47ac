package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/ridgeline/internal/testutil"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	liveness := 0.42
	id, err := s.Record(ctx, &Event{
		IdentityKey:   "deadbeefdeadbeefdeadbeefdeadbeef",
		CaseID:        "case-99",
		Sector:        "hospital",
		LivenessScore: &liveness,
		RiskLevel:     "SUSPICIOUS",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	events, err := s.History(ctx, "deadbeefdeadbeefdeadbeefdeadbeef", 90)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "case-99", e.CaseID)
	assert.Equal(t, "hospital", e.Sector)
	assert.Equal(t, "SUSPICIOUS", e.RiskLevel)
	require.NotNil(t, e.LivenessScore)
	assert.InDelta(t, 0.42, *e.LivenessScore, 1e-9)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)
}

func TestPostgresStoreNullableFields(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	// No case, no liveness, no risk level, empty sector.
	_, err := s.Record(ctx, &Event{IdentityKey: "aaaabbbbccccddddeeeeffff00001111"})
	require.NoError(t, err)

	events, err := s.History(ctx, "aaaabbbbccccddddeeeeffff00001111", 90)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].CaseID)
	assert.Empty(t, events[0].RiskLevel)
	assert.Nil(t, events[0].LivenessScore)
	assert.Equal(t, "unknown", events[0].Sector)
}

func TestPostgresStoreHistoryWindow(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()
	key := "11112222333344445555666677778888"
	now := time.Now().UTC()

	for _, age := range []int{1, 30, 120} {
		_, err := s.Record(ctx, &Event{
			IdentityKey: key,
			CreatedAt:   now.AddDate(0, 0, -age),
		})
		require.NoError(t, err)
	}

	events, err := s.History(ctx, key, 90)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].CreatedAt.After(events[1].CreatedAt), "most recent first")

	narrow, err := s.History(ctx, key, 7)
	require.NoError(t, err)
	assert.Len(t, narrow, 1)
}

func TestPostgresStoreStats(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()
	key := "99998888777766665555444433332222"
	now := time.Now().UTC()

	seed := []struct {
		caseID string
		sector string
		age    time.Duration
	}{
		{"case-a", "forensic", time.Hour},
		{"case-b", "forensic", 6 * time.Hour},
		{"case-a", "hospital", 2 * 24 * time.Hour},
		{"", "unknown", 40 * 24 * time.Hour}, // all-time only
	}
	for _, row := range seed {
		_, err := s.Record(ctx, &Event{
			IdentityKey: key,
			CaseID:      row.caseID,
			Sector:      row.sector,
			CreatedAt:   now.Add(-row.age),
		})
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalUses)
	assert.Equal(t, 2, stats.UniqueCases)
	assert.Equal(t, 3, stats.UniqueSectors)
	assert.Equal(t, 2, stats.Uses24h)
	assert.Equal(t, 3, stats.Uses7d)
	assert.WithinDuration(t, now.Add(-40*24*time.Hour), stats.FirstSeen, time.Minute)
	assert.WithinDuration(t, now.Add(-time.Hour), stats.LastSeen, time.Minute)
}

func TestPostgresStoreStatsUnknownKey(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)

	stats, err := s.Stats(context.Background(), "never-recorded-key")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalUses)
	assert.True(t, stats.FirstSeen.IsZero())
	assert.True(t, stats.LastSeen.IsZero())
}

func TestPostgresStoreClear(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	_, err := s.Record(ctx, &Event{IdentityKey: "abcd0123abcd0123abcd0123abcd0123"})
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	stats, err := s.Stats(ctx, "abcd0123abcd0123abcd0123abcd0123")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalUses)
}

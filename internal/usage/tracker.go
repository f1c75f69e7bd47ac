package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/ridgeline-labs/ridgeline/internal/syncutil"
)

// Submission carries one fingerprint submission into the tracker.
// Metadata is pass-through: the tracker stores it, the analyzer reads it.
type Submission struct {
	IdentityKey   string
	CaseID        string
	Sector        string
	LivenessScore *float64
}

// Tracker runs the read-before-write submission sequence against the ledger:
// read the key's prior stats and history, score them, then append the new
// event. A per-key lock spans the whole sequence so concurrent submissions of
// the same fingerprint serialize and no submission ever counts itself.
type Tracker struct {
	store    Store
	analyzer *Analyzer
	locks    *syncutil.KeyMutex
	logger   *slog.Logger
}

// NewTracker creates a tracker over the given ledger and analyzer.
func NewTracker(store Store, analyzer *Analyzer, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:    store,
		analyzer: analyzer,
		locks:    syncutil.NewKeyMutex(),
		logger:   logger,
	}
}

// RecordAndAnalyze scores the submission against its prior history and then
// records it. The returned analysis reflects only events that existed before
// this call. On storage failure nothing is recorded and the error wraps
// ErrStorageFailure; on context cancellation while waiting for the key lock,
// ctx.Err() is returned and the ledger is untouched.
func (t *Tracker) RecordAndAnalyze(ctx context.Context, sub Submission) (*Analysis, error) {
	unlock, err := t.locks.Lock(ctx, sub.IdentityKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	stats, err := t.store.Stats(ctx, sub.IdentityKey)
	if err != nil {
		return nil, err
	}
	history, err := t.store.History(ctx, sub.IdentityKey, t.analyzer.cfg.HistoryWindowDays)
	if err != nil {
		return nil, err
	}

	analysis := t.analyzer.Analyze(sub.IdentityKey, sub.CaseID, stats, history)

	id, err := t.store.Record(ctx, &Event{
		IdentityKey:   sub.IdentityKey,
		CaseID:        sub.CaseID,
		Sector:        sub.Sector,
		LivenessScore: sub.LivenessScore,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if analysis.Status == StatusSuspicious {
		t.logger.Warn("suspicious usage pattern",
			"identity_key", sub.IdentityKey,
			"event_id", id,
			"usage_score", analysis.UsageScore,
			"anomalies", len(analysis.Anomalies),
		)
	}

	return analysis, nil
}

// History exposes the windowed ledger history for one key.
func (t *Tracker) History(ctx context.Context, key string, windowDays int) ([]*Event, error) {
	if windowDays <= 0 {
		windowDays = t.analyzer.cfg.HistoryWindowDays
	}
	return t.store.History(ctx, key, windowDays)
}

// Stats exposes the aggregate ledger view for one key.
func (t *Tracker) Stats(ctx context.Context, key string) (*Stats, error) {
	return t.store.Stats(ctx, key)
}

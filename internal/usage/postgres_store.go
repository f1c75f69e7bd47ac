package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists usage events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed usage ledger.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the usage_events table if it doesn't exist.
// cmd/migrate owns the canonical schema; this keeps ad-hoc deployments working.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS usage_events (
			id              BIGSERIAL PRIMARY KEY,
			identity_key    VARCHAR(64) NOT NULL,
			case_id         TEXT,
			sector          TEXT NOT NULL DEFAULT 'unknown',
			liveness_score  NUMERIC(4,3) CHECK (liveness_score IS NULL OR (liveness_score >= 0 AND liveness_score <= 1)),
			risk_level      VARCHAR(16),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_usage_events_identity_key
			ON usage_events (identity_key, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_usage_events_created_at
			ON usage_events (created_at);
	`)
	if err != nil {
		return storageErr("migrate usage_events", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, event *Event) (int64, error) {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO usage_events (identity_key, case_id, sector, liveness_score, risk_level, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6)
		RETURNING id
	`,
		event.IdentityKey,
		event.CaseID,
		sectorOrDefault(event.Sector),
		event.LivenessScore,
		event.RiskLevel,
		createdAt,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("record usage event", err)
	}
	return id, nil
}

func (s *PostgresStore) History(ctx context.Context, key string, windowDays int) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity_key, COALESCE(case_id, ''), sector, liveness_score, COALESCE(risk_level, ''), created_at
		FROM usage_events
		WHERE identity_key = $1
		  AND created_at > NOW() - ($2 * INTERVAL '1 day')
		ORDER BY created_at DESC
	`, key, windowDays)
	if err != nil {
		return nil, storageErr("query usage history", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var liveness sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.IdentityKey, &e.CaseID, &e.Sector, &liveness, &e.RiskLevel, &e.CreatedAt); err != nil {
			return nil, storageErr("scan usage event", err)
		}
		if liveness.Valid {
			v := liveness.Float64
			e.LivenessScore = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate usage history", err)
	}
	return events, nil
}

func (s *PostgresStore) Stats(ctx context.Context, key string) (*Stats, error) {
	stats := &Stats{IdentityKey: key}

	var firstSeen, lastSeen sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT case_id),
		       COUNT(DISTINCT sector),
		       MIN(created_at),
		       MAX(created_at),
		       COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours'),
		       COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 days')
		FROM usage_events
		WHERE identity_key = $1
	`, key).Scan(
		&stats.TotalUses,
		&stats.UniqueCases,
		&stats.UniqueSectors,
		&firstSeen,
		&lastSeen,
		&stats.Uses24h,
		&stats.Uses7d,
	)
	if err != nil {
		return nil, storageErr("query usage stats", err)
	}

	if firstSeen.Valid {
		stats.FirstSeen = firstSeen.Time
	}
	if lastSeen.Valid {
		stats.LastSeen = lastSeen.Time
	}
	return stats, nil
}

// Clear deletes all usage events. Test fixtures only.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM usage_events`); err != nil {
		return storageErr("clear usage events", err)
	}
	return nil
}

func sectorOrDefault(sector string) string {
	if sector == "" {
		return "unknown"
	}
	return sector
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

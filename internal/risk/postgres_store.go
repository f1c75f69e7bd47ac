package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_assessments table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_assessments (
			id            VARCHAR(36) PRIMARY KEY,
			identity_key  VARCHAR(64) NOT NULL,
			liveness_score NUMERIC(4,3) NOT NULL CHECK (liveness_score >= 0 AND liveness_score <= 1),
			usage_score   NUMERIC(4,3) NOT NULL CHECK (usage_score >= 0 AND usage_score <= 1),
			combined_score NUMERIC(4,3) NOT NULL CHECK (combined_score >= 0 AND combined_score <= 1),
			risk_level    VARCHAR(16) NOT NULL CHECK (risk_level IN ('NORMAL', 'SUSPICIOUS', 'HIGH')),
			explanation   TEXT NOT NULL DEFAULT '',
			anomalies     JSONB NOT NULL DEFAULT '[]',
			evaluated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_identity_key
			ON risk_assessments (identity_key, evaluated_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, assessment *Assessment) error {
	anomaliesJSON, err := json.Marshal(assessment.Anomalies)
	if err != nil {
		return fmt.Errorf("marshal anomalies: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (id, identity_key, liveness_score, usage_score, combined_score, risk_level, explanation, anomalies, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		assessment.ID,
		assessment.IdentityKey,
		assessment.LivenessScore,
		assessment.UsageScore,
		assessment.CombinedScore,
		string(assessment.Level),
		assessment.Explanation,
		anomaliesJSON,
		assessment.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("record risk assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByKey(ctx context.Context, identityKey string, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity_key, liveness_score, usage_score, combined_score, risk_level, explanation, anomalies, evaluated_at
		FROM risk_assessments
		WHERE identity_key = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, identityKey, limit)
	if err != nil {
		return nil, fmt.Errorf("list risk assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		a := &Assessment{}
		var anomaliesJSON []byte
		if err := rows.Scan(
			&a.ID,
			&a.IdentityKey,
			&a.LivenessScore,
			&a.UsageScore,
			&a.CombinedScore,
			&a.Level,
			&a.Explanation,
			&anomaliesJSON,
			&a.EvaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan risk assessment: %w", err)
		}
		a.Anomalies = []string{}
		_ = json.Unmarshal(anomaliesJSON, &a.Anomalies)
		result = append(result, a)
	}
	return result, rows.Err()
}

// Package risk fuses a liveness score and a usage-pattern score into one
// final classification.
//
// Liveness (is this submission a physical spoof?) is the primary signal at
// 60%; usage history corroborates at 40%. Thresholds on the combined score
// are fixed policy constants, not learned values. Garbage numeric inputs are
// clamped to the valid range rather than rejected, so evaluation always
// returns a complete assessment.
package risk

import (
	"context"
	"time"
)

// Level classifies a combined score.
type Level string

const (
	LevelNormal     Level = "NORMAL"
	LevelSuspicious Level = "SUSPICIOUS"
	LevelHigh       Level = "HIGH"
)

// Scoring policy.
const (
	LivenessWeight = 0.6
	UsageWeight    = 0.4

	// Combined score below DefaultHighThreshold is HIGH risk; below
	// DefaultSuspiciousThreshold is SUSPICIOUS; at or above is NORMAL.
	DefaultHighThreshold       = 0.4
	DefaultSuspiciousThreshold = 0.7

	// NeutralUsageScore is the documented "assume normal when no usage data"
	// policy. In liveness-only mode usage is pinned here and the combined
	// score is the liveness score alone.
	NeutralUsageScore = 1.0
)

// Assessment is the engine's verdict on one submission.
type Assessment struct {
	ID            string    `json:"id"`
	IdentityKey   string    `json:"identityKey"`
	LivenessScore float64   `json:"livenessScore"`
	UsageScore    float64   `json:"usageScore"`
	CombinedScore float64   `json:"combinedScore"`
	Level         Level     `json:"riskLevel"`
	Explanation   string    `json:"explanation"`
	Anomalies     []string  `json:"anomalies"`
	EvaluatedAt   time.Time `json:"evaluatedAt"`
}

// Store persists assessments for the audit trail.
type Store interface {
	Record(ctx context.Context, assessment *Assessment) error
	ListByKey(ctx context.Context, identityKey string, limit int) ([]*Assessment, error)
}

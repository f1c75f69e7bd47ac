package risk

import (
	"context"
	"strings"
	"time"

	"github.com/ridgeline-labs/ridgeline/internal/idgen"
)

// Engine evaluates submissions against the fixed scoring policy.
// Pure in-memory computation, safe for concurrent use; the only side effect
// is the best-effort audit write.
type Engine struct {
	store               Store
	highThreshold       float64
	suspiciousThreshold float64
}

// NewEngine creates a risk engine backed by the given audit store.
// A nil store disables the audit trail.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:               store,
		highThreshold:       DefaultHighThreshold,
		suspiciousThreshold: DefaultSuspiciousThreshold,
	}
}

// WithHighThreshold overrides the HIGH classification boundary.
func (e *Engine) WithHighThreshold(t float64) *Engine {
	e.highThreshold = t
	return e
}

// WithSuspiciousThreshold overrides the SUSPICIOUS classification boundary.
func (e *Engine) WithSuspiciousThreshold(t float64) *Engine {
	e.suspiciousThreshold = t
	return e
}

// Thresholds reports the active policy for the introspection endpoint.
func (e *Engine) Thresholds() map[string]float64 {
	return map[string]float64{
		"high_risk_below":     e.highThreshold,
		"suspicious_below":    e.suspiciousThreshold,
		"normal_at_or_above":  e.suspiciousThreshold,
		"liveness_weight":     LivenessWeight,
		"usage_weight":        UsageWeight,
		"neutral_usage_score": NeutralUsageScore,
	}
}

// Evaluate combines a liveness score with an optional usage score into a
// final assessment. A nil usageScore means no usage subsystem contributed:
// usage is treated as neutral and the combined score is liveness alone.
// Out-of-range scores are clamped, never rejected.
func (e *Engine) Evaluate(ctx context.Context, identityKey string, livenessScore float64, usageScore *float64, anomalies []string) *Assessment {
	liveness := clamp(livenessScore)

	var usage, combined float64
	if usageScore == nil {
		usage = NeutralUsageScore
		combined = liveness
	} else {
		usage = clamp(*usageScore)
		combined = liveness*LivenessWeight + usage*UsageWeight
	}

	if anomalies == nil {
		anomalies = []string{}
	}

	level, explanation := e.classify(combined, liveness, usage, anomalies)

	assessment := &Assessment{
		ID:            idgen.WithPrefix("asmt_"),
		IdentityKey:   identityKey,
		LivenessScore: liveness,
		UsageScore:    usage,
		CombinedScore: combined,
		Level:         level,
		Explanation:   explanation,
		Anomalies:     anomalies,
		EvaluatedAt:   time.Now().UTC(),
	}

	// Audit trail is best-effort; an unreachable store must not fail the
	// assessment itself.
	if e.store != nil {
		go func() {
			_ = e.store.Record(context.WithoutCancel(ctx), assessment)
		}()
	}

	return assessment
}

// classify maps the combined score to a level and builds the explanation
// from the signals that actually drove the decision.
func (e *Engine) classify(combined, liveness, usage float64, anomalies []string) (Level, string) {
	var level Level
	var fragments []string

	switch {
	case combined < e.highThreshold:
		level = LevelHigh
		if liveness < 0.4 {
			fragments = append(fragments, "Strong spoof indicators detected")
		}
		if usage < 0.5 && len(anomalies) > 0 {
			fragments = append(fragments, "Suspicious usage patterns found")
		}
	case combined < e.suspiciousThreshold:
		level = LevelSuspicious
		if liveness < 0.7 {
			fragments = append(fragments, "Potential spoof indicators")
		}
		if len(anomalies) > 0 {
			fragments = append(fragments, "Usage anomalies detected")
		}
	default:
		level = LevelNormal
		fragments = append(fragments, "Fingerprint appears live and usage patterns are normal")
	}

	if len(anomalies) > 0 && level != LevelNormal {
		summary := anomalies
		if len(summary) > 2 {
			summary = summary[:2]
		}
		fragments = append(fragments, "("+strings.Join(summary, "; ")+")")
	}

	if len(fragments) == 0 {
		return level, "Analysis complete"
	}
	return level, strings.Join(fragments, " - ")
}

func clamp(v float64) float64 {
	switch {
	case v < 0.0:
		return 0.0
	case v > 1.0:
		return 1.0
	default:
		return v
	}
}

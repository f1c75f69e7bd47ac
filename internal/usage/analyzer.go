package usage

import (
	"fmt"
	"time"
)

// Fixed detection policy. Each triggered rule subtracts its penalty from a
// starting score of 1.0, floored at 0.0.
const (
	DefaultHighFrequencyThreshold = 5  // uses in the trailing 24h
	DefaultChronicCaseThreshold   = 3  // all-time distinct case ids
	DefaultDormancyDays           = 30 // days idle before a use counts as reactivation
	DefaultHistoryWindowDays      = 90 // window for the recent existing-case set

	FrequencyPenalty    = 0.3
	NewCasePenalty      = 0.4
	ChronicCasePenalty  = 0.2
	ReactivationPenalty = 0.3
)

// AnalyzerConfig carries the detection thresholds. The chronic multi-case rule
// reads the all-time unique-case count while the new-case rule reads the
// windowed history; the two windows are deliberately independent because a
// case outside the recent window still counts as chronic reuse.
type AnalyzerConfig struct {
	HighFrequencyThreshold int
	ChronicCaseThreshold   int
	DormancyDays           int
	HistoryWindowDays      int
}

// DefaultAnalyzerConfig returns the production thresholds.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		HighFrequencyThreshold: DefaultHighFrequencyThreshold,
		ChronicCaseThreshold:   DefaultChronicCaseThreshold,
		DormancyDays:           DefaultDormancyDays,
		HistoryWindowDays:      DefaultHistoryWindowDays,
	}
}

// Analyzer evaluates a key's prior history against the anomaly rules.
// Pure computation: deterministic given its inputs and clock, holds no state
// across calls, safe for concurrent use.
type Analyzer struct {
	cfg AnalyzerConfig
	now func() time.Time
}

// NewAnalyzer creates an analyzer with the given thresholds.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg, now: time.Now}
}

// WithClock overrides the analyzer's clock. Tests pin it to exercise the
// 24h/dormancy boundaries exactly.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze scores one submission against the history strictly prior to it.
// stats and history must come from the same ledger snapshot, read before the
// submission's own event is appended.
//
// Rules run independently and in a fixed order (frequency, cross-case,
// reactivation); a rule that cannot be evaluated silently does not fire, it
// never aborts the analysis.
func (a *Analyzer) Analyze(key, currentCaseID string, stats *Stats, history []*Event) *Analysis {
	var anomalies []string
	penalties := 0.0

	// Rule 1: high-frequency reuse inside 24 hours.
	if stats.Uses24h >= a.cfg.HighFrequencyThreshold {
		anomalies = append(anomalies,
			fmt.Sprintf("High frequency: %d uses in last 24 hours", stats.Uses24h))
		penalties += FrequencyPenalty
	}

	// Rule 2: cross-case reuse. A fingerprint surfacing in a brand-new case
	// after being tied to other recent cases is the strongest signal; chronic
	// multi-case usage is the weaker fallback. The two sub-checks are mutually
	// exclusive per evaluation.
	existingCases := make(map[string]struct{})
	for _, e := range history {
		if e.CaseID != "" {
			existingCases[e.CaseID] = struct{}{}
		}
	}
	_, seenBefore := existingCases[currentCaseID]

	switch {
	case currentCaseID != "" && !seenBefore && len(existingCases) > 0:
		anomalies = append(anomalies,
			fmt.Sprintf("Cross-case reuse: fingerprint used in %d previous case(s), now appearing in new case", len(existingCases)))
		penalties += NewCasePenalty
	case stats.UniqueCases >= a.cfg.ChronicCaseThreshold:
		anomalies = append(anomalies,
			fmt.Sprintf("Multi-case usage: same fingerprint linked to %d different cases", stats.UniqueCases))
		penalties += ChronicCasePenalty
	}

	// Rule 3: reactivation after dormancy. A zero LastSeen means the timestamp
	// was absent or unusable; the rule does not fire.
	if !stats.LastSeen.IsZero() && stats.TotalUses > 0 {
		idleDays := int(a.now().UTC().Sub(stats.LastSeen.UTC()).Hours() / 24)
		if idleDays >= a.cfg.DormancyDays {
			anomalies = append(anomalies,
				fmt.Sprintf("Reactivation: fingerprint dormant for %d days, now active again", idleDays))
			penalties += ReactivationPenalty
		}
	}

	score := 1.0 - penalties
	if score < 0.0 {
		score = 0.0
	}

	status := StatusNormal
	if len(anomalies) > 0 {
		status = StatusSuspicious
	}

	return &Analysis{
		UsageScore:  score,
		Status:      status,
		Anomalies:   anomalies,
		TotalUses:   stats.TotalUses,
		UniqueCases: stats.UniqueCases,
		Uses24h:     stats.Uses24h,
		FirstSeen:   stats.FirstSeen,
		LastSeen:    stats.LastSeen,
	}
}

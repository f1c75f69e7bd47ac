// Package usage maintains the append-only ledger of fingerprint submissions
// and detects anomalous reuse patterns.
//
// Every submission is recorded as an immutable event keyed by the content-hash
// identity of the fingerprint. The analyzer turns a key's prior history into a
// usage score in [0, 1] (1 = nothing unusual) plus human-readable anomaly
// findings: high-frequency reuse, appearance in a new case after being tied to
// other cases, and reactivation after long dormancy. Detection uses fixed,
// inspectable thresholds — no learned model.
package usage

import (
	"context"
	"errors"
	"time"
)

// Status summarizes whether any anomaly rule fired for a submission.
type Status string

const (
	StatusNormal     Status = "NORMAL"
	StatusSuspicious Status = "SUSPICIOUS"
)

// Event is one immutable ledger row per fingerprint submission.
// Events are never updated or deleted outside of test resets.
type Event struct {
	ID            int64     `json:"id"`
	IdentityKey   string    `json:"identityKey"`
	CaseID        string    `json:"caseId,omitempty"` // empty when the submission carried no case
	Sector        string    `json:"sector"`
	LivenessScore *float64  `json:"livenessScore,omitempty"`
	RiskLevel     string    `json:"riskLevel,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Stats is the aggregate view over all history for one identity key.
// Derived on demand; never persisted.
type Stats struct {
	IdentityKey   string    `json:"identityKey"`
	TotalUses     int       `json:"totalUses"`
	UniqueCases   int       `json:"uniqueCases"`
	UniqueSectors int       `json:"uniqueSectors"`
	Uses24h       int       `json:"uses24h"`
	Uses7d        int       `json:"uses7d"`
	FirstSeen     time.Time `json:"firstSeen,omitzero"` // zero when the key has no history
	LastSeen      time.Time `json:"lastSeen,omitzero"`
}

// Analysis is the analyzer's verdict on one submission, computed from the
// history strictly prior to that submission's own event.
type Analysis struct {
	UsageScore  float64   `json:"usageScore"`
	Status      Status    `json:"usageStatus"`
	Anomalies   []string  `json:"anomalies"`
	TotalUses   int       `json:"totalUses"`
	UniqueCases int       `json:"uniqueCases"`
	Uses24h     int       `json:"uses24h"`
	FirstSeen   time.Time `json:"firstSeen,omitzero"`
	LastSeen    time.Time `json:"lastSeen,omitzero"`
}

// ErrStorageFailure marks ledger reads or writes that could not be completed.
// The core never retries these; callers decide on retry policy. Transport maps
// it to a retryable 503.
var ErrStorageFailure = errors.New("usage ledger storage failure")

// Store persists and queries the append-only submission ledger.
type Store interface {
	// Record appends one event and returns its id. The event is either fully
	// durable or not recorded at all; failures wrap ErrStorageFailure.
	Record(ctx context.Context, event *Event) (int64, error)

	// History returns the key's events within the trailing window, most
	// recent first, from a single snapshot read.
	History(ctx context.Context, key string, windowDays int) ([]*Event, error)

	// Stats aggregates over the key's full history (first/last seen, totals)
	// plus trailing 24h and 7d counts measured from query time.
	Stats(ctx context.Context, key string) (*Stats, error)

	// Clear deletes all events. Test fixtures only; never routed.
	Clear(ctx context.Context) error
}

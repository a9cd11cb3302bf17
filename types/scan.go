package types

import (
	"fmt"
	"time"
)

// ScanDepth selects which services are inspected
type ScanDepth string

const (
	DepthQuick         ScanDepth = "quick"
	DepthStandard      ScanDepth = "standard"
	DepthComprehensive ScanDepth = "comprehensive"
)

// ParseDepth converts a string to a ScanDepth
func ParseDepth(s string) (ScanDepth, error) {
	switch ScanDepth(s) {
	case DepthQuick, DepthStandard, DepthComprehensive:
		return ScanDepth(s), nil
	}
	return "", fmt.Errorf("unknown scan depth %q", s)
}

// Service identifies a service scanner capability
type Service string

const (
	ServiceStorage   Service = "storage"
	ServiceCompute   Service = "compute"
	ServiceIdentity  Service = "identity"
	ServiceDatabases Service = "databases"
)

// AccountRef identifies one target account
type AccountRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScanStatus is the terminal state of one account scan
type ScanStatus string

const (
	ScanSucceeded ScanStatus = "SUCCEEDED"
	ScanPartial   ScanStatus = "PARTIAL"
	ScanFailed    ScanStatus = "FAILED"
	ScanCancelled ScanStatus = "CANCELLED"
)

// Assessed reports whether the scan produced usable findings.
// Cancelled and failed accounts contribute nothing to scoring,
// patterns, or reports.
func (s ScanStatus) Assessed() bool {
	return s == ScanSucceeded || s == ScanPartial
}

// ScannerIssue records one degraded service scanner on a PARTIAL result
type ScannerIssue struct {
	Scanner string `json:"scanner"`
	Message string `json:"message"`
}

// PillarScore is the aggregated score of one pillar for one account.
// Score is in [0,100]; FindingsCount distinguishes a verified-clean
// pillar (zero findings, score 100) from one dragged down by evidence.
type PillarScore struct {
	Pillar        Pillar    `json:"pillar"`
	Score         float64   `json:"score"`
	FindingsCount int       `json:"findings_count"`
	Findings      []Finding `json:"findings,omitempty"`
}

// ScanResult is the complete outcome of scanning one account once.
// Immutable after creation; owned exclusively by its batch.
type ScanResult struct {
	AccountID    string                 `json:"account_id"`
	AccountName  string                 `json:"account_name"`
	ScannedAt    time.Time              `json:"scanned_at"`
	Depth        ScanDepth              `json:"depth"`
	Duration     time.Duration          `json:"duration"`
	Findings     []Finding              `json:"findings,omitempty"`
	PillarScores map[Pillar]PillarScore `json:"pillar_scores,omitempty"`
	OverallScore float64                `json:"overall_score"`
	Status       ScanStatus             `json:"status"`
	Error        string                 `json:"error,omitempty"`
	Degraded     []ScannerIssue         `json:"degraded,omitempty"`
	Enrichment   string                 `json:"enrichment,omitempty"`
}

// ScanBatch is the set of ScanResults from one orchestration run.
// Results preserve the originally requested account order regardless
// of real-time completion order.
type ScanBatch struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Depth       ScanDepth     `json:"depth"`
	Concurrency int           `json:"concurrency"`
	Accounts    []AccountRef  `json:"accounts"`
	Results     []ScanResult  `json:"results"`
}

// Assessed returns the results that produced usable findings, in batch order
func (b *ScanBatch) Assessed() []ScanResult {
	assessed := make([]ScanResult, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Status.Assessed() {
			assessed = append(assessed, r)
		}
	}
	return assessed
}

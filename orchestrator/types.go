package orchestrator

import (
	"context"

	"github.com/cloudvet/cloudvet/types"
)

// Session is an authenticated handle to one target account, produced by
// a Connector and consumed by service scanners
type Session interface {
	AccountID() string
}

// Connector acquires a session for a target account. Consumed once per
// account at the start of its scan.
type Connector interface {
	Connect(ctx context.Context, account types.AccountRef) (Session, error)
}

// Scanner inspects one service in one account and returns raw findings.
// A non-nil error marks the scanner's contribution as degraded; it does
// not fail the account.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, session Session, region string) ([]types.Finding, error)
}

// Enricher optionally attaches narrative text to a scan result.
// Failures are silent: absence of enrichment never blocks reporting.
type Enricher interface {
	Enrich(ctx context.Context, result types.ScanResult) (string, error)
}

// Progress is emitted after each account finishes
type Progress struct {
	Completed int
	Total     int
	Account   string
}

// BatchRequest describes one orchestration run. The depth→services
// mapping is resolved by the caller (see config.ServicesForDepth); the
// orchestrator only executes what it is given.
type BatchRequest struct {
	Accounts    []types.AccountRef
	Depth       types.ScanDepth
	Services    []types.Service
	Concurrency int
}

// Package orchestrator coordinates concurrent per-account assessment scans.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cloudvet/cloudvet/classifier"
	"github.com/cloudvet/cloudvet/scoring"
	"github.com/cloudvet/cloudvet/telemetry"
	"github.com/cloudvet/cloudvet/types"
)

const (
	defaultAccountTimeout = 5 * time.Minute
	defaultEnrichTimeout  = 30 * time.Second
	defaultScannerLimit   = 4
)

// Orchestrator runs assessment batches: a bounded worker pool over
// accounts, a second smaller bound over service scanners within each
// account, failure isolation per account, and progress events.
type Orchestrator struct {
	connector      Connector
	registry       *Registry
	classifier     *classifier.Classifier
	region         string
	accountTimeout time.Duration
	scannerLimit   int
	enricher       Enricher
	enrichTimeout  time.Duration
	onProgress     func(Progress)
	logger         *telemetry.Logger
	metrics        *telemetry.AssessMetrics
}

// New creates an orchestrator with default limits
func New(connector Connector, registry *Registry) *Orchestrator {
	return &Orchestrator{
		connector:      connector,
		registry:       registry,
		classifier:     classifier.New(),
		region:         "us-east-1",
		accountTimeout: defaultAccountTimeout,
		scannerLimit:   defaultScannerLimit,
		enrichTimeout:  defaultEnrichTimeout,
		logger:         telemetry.NewLogger("orchestrator"),
	}
}

// WithRegion sets the region passed to service scanners
func (o *Orchestrator) WithRegion(region string) *Orchestrator {
	o.region = region
	return o
}

// WithAccountTimeout sets the hard deadline for one account scan
func (o *Orchestrator) WithAccountTimeout(d time.Duration) *Orchestrator {
	o.accountTimeout = d
	return o
}

// WithScannerLimit bounds concurrent service-scanner calls per account
func (o *Orchestrator) WithScannerLimit(n int) *Orchestrator {
	o.scannerLimit = n
	return o
}

// WithEnricher enables optional enrichment with its own timeout,
// independent of the account's overall deadline
func (o *Orchestrator) WithEnricher(e Enricher, timeout time.Duration) *Orchestrator {
	o.enricher = e
	if timeout > 0 {
		o.enrichTimeout = timeout
	}
	return o
}

// WithProgress sets the progress callback. It is invoked from a single
// collector goroutine, never concurrently.
func (o *Orchestrator) WithProgress(fn func(Progress)) *Orchestrator {
	o.onProgress = fn
	return o
}

// WithMetrics enables metric recording
func (o *Orchestrator) WithMetrics(m *telemetry.AssessMetrics) *Orchestrator {
	o.metrics = m
	return o
}

type indexedResult struct {
	index  int
	result types.ScanResult
}

// RunBatch scans all requested accounts and returns one ScanBatch with
// a result per account, in the originally requested order.
//
// One account's failure never aborts or blocks the others. Cancelling
// ctx stops issuing new account scans and marks still-pending accounts
// CANCELLED; accounts already running finish normally, so the batch
// never contains a torn result.
func (o *Orchestrator) RunBatch(ctx context.Context, req BatchRequest) (*types.ScanBatch, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	batch := &types.ScanBatch{
		ID:          uuid.NewString(),
		StartedAt:   start,
		Depth:       req.Depth,
		Concurrency: req.Concurrency,
		Accounts:    req.Accounts,
		Results:     make([]types.ScanResult, len(req.Accounts)),
	}

	o.logger.LogBatchStart(ctx, batch.ID, len(req.Accounts), req.Depth, req.Concurrency)

	sem := make(chan struct{}, req.Concurrency)
	resultCh := make(chan indexedResult, len(req.Accounts))
	launched := 0

	for i, account := range req.Accounts {
		if ctx.Err() != nil {
			batch.Results[i] = cancelledResult(account, req.Depth)
			continue
		}
		select {
		case <-ctx.Done():
			batch.Results[i] = cancelledResult(account, req.Depth)
		case sem <- struct{}{}:
			launched++
			go func(idx int, account types.AccountRef) {
				defer func() { <-sem }()
				resultCh <- indexedResult{idx, o.scanAccount(ctx, account, req)}
			}(i, account)
		}
	}

	// Single collector: the only writer of batch results and progress
	for completed := 0; completed < launched; completed++ {
		ir := <-resultCh
		batch.Results[ir.index] = ir.result

		o.logger.LogAccountDone(ctx, ir.result)
		o.metrics.RecordAccountDone(ctx, ir.result)
		if o.onProgress != nil {
			o.onProgress(Progress{
				Completed: completed + 1,
				Total:     len(req.Accounts),
				Account:   ir.result.AccountName,
			})
		}
	}

	batch.Duration = time.Since(start)
	if o.metrics != nil {
		o.metrics.BatchDuration.Record(ctx, batch.Duration.Seconds())
	}

	return batch, nil
}

// validate fails fast on configuration errors before any scan starts
func (o *Orchestrator) validate(req BatchRequest) error {
	if len(req.Accounts) == 0 {
		return fmt.Errorf("no accounts to scan")
	}
	if req.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", req.Concurrency)
	}
	if _, err := types.ParseDepth(string(req.Depth)); err != nil {
		return err
	}
	if len(req.Services) == 0 {
		return fmt.Errorf("no services configured for depth %s", req.Depth)
	}
	for _, svc := range req.Services {
		if _, ok := o.registry.Get(svc); !ok {
			return fmt.Errorf("no scanner registered for service %s", svc)
		}
	}
	if o.scannerLimit < 1 {
		return fmt.Errorf("scanner limit must be >= 1, got %d", o.scannerLimit)
	}
	return nil
}

// scanAccount scans one account end to end. The returned result is
// terminal: SUCCEEDED, PARTIAL, or FAILED, never torn.
func (o *Orchestrator) scanAccount(parent context.Context, account types.AccountRef, req BatchRequest) types.ScanResult {
	start := time.Now()

	// Detach from batch cancellation: running accounts finish. Only the
	// account's own deadline can cut this scan short.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), o.accountTimeout)
	defer cancel()

	result := types.ScanResult{
		AccountID:   account.ID,
		AccountName: account.Name,
		ScannedAt:   start,
		Depth:       req.Depth,
	}

	session, err := o.connector.Connect(ctx, account)
	if err != nil {
		return failResult(result, start, fmt.Errorf("connect: %w", err))
	}

	findings, degraded, err := o.runScanners(ctx, session, req.Services)
	if err != nil {
		return failResult(result, start, err)
	}

	classifications := make([]types.Classification, len(findings))
	for i, f := range findings {
		classifications[i] = o.classifier.Classify(f)
	}

	scores, overall, err := scoring.Aggregate(findings, classifications)
	if err != nil {
		return failResult(result, start, err)
	}

	result.Findings = findings
	result.PillarScores = scores
	result.OverallScore = overall
	result.Degraded = degraded
	result.Status = types.ScanSucceeded
	if len(degraded) > 0 {
		result.Status = types.ScanPartial
	}
	result.Duration = time.Since(start)

	o.enrichResult(ctx, &result)
	return result
}

type scannerOutcome struct {
	service  types.Service
	name     string
	findings []types.Finding
	err      error
}

// runScanners invokes all configured service scanners for one session,
// bounded by the inner scanner limit. Individual scanner errors degrade
// the result; only the account deadline fails it.
func (o *Orchestrator) runScanners(ctx context.Context, session Session, services []types.Service) ([]types.Finding, []types.ScannerIssue, error) {
	sem := make(chan struct{}, o.scannerLimit)
	outcomeCh := make(chan scannerOutcome, len(services))

	for _, svc := range services {
		scanner, _ := o.registry.Get(svc) // presence validated at batch start
		go func(svc types.Service, scanner Scanner) {
			sem <- struct{}{}
			defer func() { <-sem }()
			findings, err := scanner.Scan(ctx, session, o.region)
			outcomeCh <- scannerOutcome{service: svc, name: scanner.Name(), findings: findings, err: err}
		}(svc, scanner)
	}

	outcomes := make([]scannerOutcome, 0, len(services))
	for range services {
		outcomes = append(outcomes, <-outcomeCh)
	}
	// Completion order is racy; sort for stable result contents
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].service < outcomes[j].service })

	var findings []types.Finding
	var degraded []types.ScannerIssue
	for _, out := range outcomes {
		if out.err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("account scan deadline exceeded: %w", ctx.Err())
			}
			o.logger.LogScannerDegraded(ctx, session.AccountID(), out.name, out.err)
			degraded = append(degraded, types.ScannerIssue{Scanner: out.name, Message: out.err.Error()})
			continue
		}
		findings = append(findings, out.findings...)
	}

	return findings, degraded, nil
}

// enrichResult attaches optional narrative text under its own timeout.
// Enrichment failure is informational only.
func (o *Orchestrator) enrichResult(ctx context.Context, result *types.ScanResult) {
	if o.enricher == nil || !result.Status.Assessed() {
		return
	}

	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.enrichTimeout)
	defer cancel()

	text, err := o.enricher.Enrich(ectx, *result)
	if err != nil {
		o.logger.LogEnrichmentSkipped(ctx, result.AccountName, err)
		return
	}
	result.Enrichment = text
}

func failResult(result types.ScanResult, start time.Time, err error) types.ScanResult {
	result.Status = types.ScanFailed
	result.Error = err.Error()
	result.Duration = time.Since(start)
	return result
}

func cancelledResult(account types.AccountRef, depth types.ScanDepth) types.ScanResult {
	return types.ScanResult{
		AccountID:   account.ID,
		AccountName: account.Name,
		ScannedAt:   time.Now(),
		Depth:       depth,
		Status:      types.ScanCancelled,
	}
}

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cloudvet/cloudvet/types"
)

// AssessMetrics holds all assessment run metrics
type AssessMetrics struct {
	// Counters
	AccountsScanned  metric.Int64Counter
	AccountsFailed   metric.Int64Counter
	FindingsDetected metric.Int64Counter
	ScannersDegraded metric.Int64Counter

	// Gauges
	AccountsInFlight metric.Int64Gauge

	// Histograms
	BatchDuration   metric.Float64Histogram
	AccountDuration metric.Float64Histogram
}

// InitAssessMetrics initializes all assessment metrics
func InitAssessMetrics(meter metric.Meter) (*AssessMetrics, error) {
	m := &AssessMetrics{}

	if err := m.initCounters(meter); err != nil {
		return nil, err
	}
	if err := m.initGauges(meter); err != nil {
		return nil, err
	}
	if err := m.initHistograms(meter); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *AssessMetrics) initCounters(meter metric.Meter) error {
	var err error

	m.AccountsScanned, err = meter.Int64Counter(
		"cloudvet.accounts.scanned.total",
		metric.WithDescription("Total number of account scans completed"),
		metric.WithUnit("accounts"),
	)
	if err != nil {
		return err
	}

	m.AccountsFailed, err = meter.Int64Counter(
		"cloudvet.accounts.failed.total",
		metric.WithDescription("Total number of account scans that failed"),
		metric.WithUnit("accounts"),
	)
	if err != nil {
		return err
	}

	m.FindingsDetected, err = meter.Int64Counter(
		"cloudvet.findings.detected.total",
		metric.WithDescription("Total number of findings produced by service scanners"),
		metric.WithUnit("findings"),
	)
	if err != nil {
		return err
	}

	m.ScannersDegraded, err = meter.Int64Counter(
		"cloudvet.scanners.degraded.total",
		metric.WithDescription("Total number of degraded service scanner calls"),
		metric.WithUnit("calls"),
	)
	return err
}

func (m *AssessMetrics) initGauges(meter metric.Meter) error {
	var err error

	m.AccountsInFlight, err = meter.Int64Gauge(
		"cloudvet.accounts.in_flight",
		metric.WithDescription("Number of account scans currently running"),
		metric.WithUnit("accounts"),
	)
	return err
}

func (m *AssessMetrics) initHistograms(meter metric.Meter) error {
	var err error

	m.BatchDuration, err = meter.Float64Histogram(
		"cloudvet.batch.duration",
		metric.WithDescription("Duration of full assessment batches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.AccountDuration, err = meter.Float64Histogram(
		"cloudvet.account.duration",
		metric.WithDescription("Duration of single account scans"),
		metric.WithUnit("s"),
	)
	return err
}

// RecordAccountDone records the outcome of one finished account scan
func (m *AssessMetrics) RecordAccountDone(ctx context.Context, result types.ScanResult) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("status", string(result.Status)),
		attribute.String("depth", string(result.Depth)),
	)

	m.AccountsScanned.Add(ctx, 1, attrs)
	if result.Status == types.ScanFailed {
		m.AccountsFailed.Add(ctx, 1, attrs)
	}
	m.FindingsDetected.Add(ctx, int64(len(result.Findings)))
	m.ScannersDegraded.Add(ctx, int64(len(result.Degraded)))
	m.AccountDuration.Record(ctx, result.Duration.Seconds(), attrs)
}

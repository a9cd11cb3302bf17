package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudvet/cloudvet/types"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for assessment runs

func (l *Logger) LogBatchStart(ctx context.Context, batchID string, accounts int, depth types.ScanDepth, concurrency int) {
	l.WithContext(ctx).Info().
		Str("batch_id", batchID).
		Int("accounts", accounts).
		Str("depth", string(depth)).
		Int("concurrency", concurrency).
		Msg("starting assessment batch")
}

func (l *Logger) LogAccountDone(ctx context.Context, result types.ScanResult) {
	event := l.WithContext(ctx).Info()
	if result.Status == types.ScanFailed {
		event = l.WithContext(ctx).Error().Str("error", result.Error)
	}
	event.
		Str("account_id", result.AccountID).
		Str("account", result.AccountName).
		Str("status", string(result.Status)).
		Int("findings", len(result.Findings)).
		Float64("overall_score", result.OverallScore).
		Dur("duration", result.Duration).
		Msg("account scan finished")
}

func (l *Logger) LogScannerDegraded(ctx context.Context, account, scanner string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("account", account).
		Str("scanner", scanner).
		Msg("service scanner degraded")
}

func (l *Logger) LogEnrichmentSkipped(ctx context.Context, account string, err error) {
	l.WithContext(ctx).Debug().
		Err(err).
		Str("account", account).
		Msg("enrichment unavailable, skipping")
}

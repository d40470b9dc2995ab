package kernel

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type AppDiagnostic struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	RequestCounter metric.Int64Counter
	ErrorCounter   metric.Int64Counter
	SeedCounter    metric.Int64Counter
}

// NewDiagnostic binds to the global providers. Until SetupOtel installs real
// ones they are no-ops, which is what tests run against.
func NewDiagnostic(serviceName string) *AppDiagnostic {
	return newDiagnostic(otel.Tracer(serviceName+"-tracer"), otel.Meter(serviceName+"-meter"))
}

// newDiagnostic never leaves a counter nil: when the meter refuses an
// instrument every counter falls back to a no-op one.
func newDiagnostic(tracer trace.Tracer, meter metric.Meter) *AppDiagnostic {
	diag := &AppDiagnostic{Tracer: tracer, Meter: meter}
	if err := diag.initInstruments(); err != nil {
		log.Error().Err(err).Msg("failed to create metric instruments, metrics disabled")
		diag.Meter = noop.NewMeterProvider().Meter("noop")
		_ = diag.initInstruments()
	}
	return diag
}

func (diag *AppDiagnostic) initInstruments() error {
	var err error
	if diag.RequestCounter, err = diag.Meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return err
	}
	if diag.ErrorCounter, err = diag.Meter.Int64Counter("http_request_errors_total",
		metric.WithDescription("Total number of HTTP requests answered with an error envelope")); err != nil {
		return err
	}
	if diag.SeedCounter, err = diag.Meter.Int64Counter("seed_records_created_total",
		metric.WithDescription("Records inserted by startup seeding")); err != nil {
		return err
	}
	return nil
}

func (diag *AppDiagnostic) BeginTracing(ctx context.Context, spanName string) (trace.Span, context.Context) {
	ctx, span := diag.Tracer.Start(ctx, spanName)
	return span, ctx
}

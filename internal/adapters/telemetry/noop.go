package telemetry

import (
	"context"

	"go.trai.ch/kiln/internal/core/ports"
)

// NoopTracer is a Tracer that records nothing. Used when telemetry is
// disabled and in tests.
type NoopTracer struct{}

// NewNoopTracer creates a tracer that discards all spans.
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

// Start returns a span that does nothing.
func (t *NoopTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

// EmitPlan does nothing.
func (t *NoopTracer) EmitPlan(_ context.Context, _ []string) {}

type noopSpan struct{}

func (noopSpan) End()                     {}
func (noopSpan) RecordError(error)        {}
func (noopSpan) SetAttribute(string, any) {}

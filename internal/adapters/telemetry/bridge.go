package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor to surface span lifecycle on
// the logger. Failed spans are always reported; successful spans only in
// verbose mode.
type Bridge struct {
	logger  ports.Logger
	verbose bool
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger, verbose bool) *Bridge {
	return &Bridge{
		logger:  logger,
		verbose: verbose,
	}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil {
		return
	}

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		b.logger.Warn(fmt.Sprintf("%s: %s", s.Name(), desc))
		return
	}

	if b.verbose {
		duration := s.EndTime().Sub(s.StartTime()).Round(timeResolution)
		b.logger.Info(fmt.Sprintf("%s (%s)", s.Name(), duration))
	}
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// timeResolution is the rounding applied to reported span durations.
const timeResolution = time.Millisecond

// Setup configures the OpenTelemetry SDK with the logger bridge and
// registers it as the global provider. The returned function flushes and
// shuts the provider down.
func Setup(logger ports.Logger, verbose bool) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(logger, verbose)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

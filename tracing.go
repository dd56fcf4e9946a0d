package gomcp

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans produced by this module.
const tracerName = "github.com/J-35S/gomcp"

// StartSpan starts a span using the tracer provider carried by ctx, so the
// module traces through whatever provider the host application installed.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return trace.SpanFromContext(ctx).TracerProvider().
		Tracer(tracerName).
		Start(ctx, name, opts...)
}

package xtrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gomod.pri/cobf/pipeline"

// Attribute keys recorded on pass spans.
const (
	AttrPass    = attribute.Key("cobf.pass")
	AttrDialect = attribute.Key("cobf.dialect")
	AttrRunID   = attribute.Key("cobf.run_id")
	AttrTokens  = attribute.Key("cobf.tokens")
	AttrChanges = attribute.Key("cobf.changes")
)

func TraceID(ctx context.Context) string {
	return trace.SpanFromContext(ctx).SpanContext().TraceID().String()
}

// StartPass opens a span named "pass/<pass>" on the global tracer provider.
func StartPass(ctx context.Context, pass string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, AttrPass.String(pass))
	return otel.Tracer(tracerName).Start(ctx, "pass/"+pass, trace.WithAttributes(attrs...))
}

// EndPass records the outcome of a pass and ends its span. changes is the
// number of rewrites the pass made.
func EndPass(span trace.Span, tokens, changes int, err error) {
	span.SetAttributes(AttrTokens.Int(tokens), AttrChanges.Int(changes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

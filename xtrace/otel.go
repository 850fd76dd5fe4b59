package xtrace

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Install sets an SDK tracer provider as the global one with a processor
// that logs every finished pass span at debug level. The returned function
// shuts the provider down.
func Install() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewPassLogProcessor()))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// NewPassLogProcessor returns a span processor that logs pass spans.
func NewPassLogProcessor() sdktrace.SpanProcessor {
	return &passLogProcessor{}
}

type passLogProcessor struct{}

func (p *passLogProcessor) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {}

func (p *passLogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := make([]logx.LogField, 0, len(s.Attributes())+2)
	fields = append(fields,
		logx.Field("trace", s.SpanContext().TraceID().String()),
		logx.Field("duration", s.EndTime().Sub(s.StartTime()).String()),
	)
	for _, attr := range s.Attributes() {
		fields = append(fields, logx.Field(string(attr.Key), attrValue(attr)))
	}

	if s.Status().Code == codes.Error {
		logx.Errorw(s.Name()+" failed: "+s.Status().Description, fields...)
		return
	}
	logx.Debugw(s.Name(), fields...)
}

func (p *passLogProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *passLogProcessor) ForceFlush(ctx context.Context) error { return nil }

func attrValue(attr attribute.KeyValue) any {
	switch attr.Value.Type() {
	case attribute.STRING:
		return attr.Value.AsString()
	case attribute.BOOL:
		return attr.Value.AsBool()
	case attribute.INT64:
		return attr.Value.AsInt64()
	case attribute.FLOAT64:
		return attr.Value.AsFloat64()
	default:
		return fmt.Sprintf("%v", attr.Value.AsInterface())
	}
}

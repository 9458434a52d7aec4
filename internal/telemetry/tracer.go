package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for lifecycle spans.
const (
	AttrRunID          = "connmgr.run_id"
	AttrPhase          = "connmgr.phase"
	AttrStoreName      = "connmgr.store_name"
	AttrConnectionName = "connmgr.connection_name"
	AttrServicePath    = "connmgr.service_path"
	AttrHandler        = "connmgr.handler"
	AttrDeclarations   = "connmgr.declarations"
	AttrFailed         = "connmgr.failed"
	AttrSkipped        = "connmgr.skipped"
)

// Span names.
const (
	SpanInit    = "connmgr.init"
	SpanPhase   = "connmgr.phase"
	SpanHandler = "connmgr.handler"
)

func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

func Phase(phase string) attribute.KeyValue {
	return attribute.String(AttrPhase, phase)
}

func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

func ConnectionName(name string) attribute.KeyValue {
	return attribute.String(AttrConnectionName, name)
}

func ServicePath(path string) attribute.KeyValue {
	return attribute.String(AttrServicePath, path)
}

func Handler(name string) attribute.KeyValue {
	return attribute.String(AttrHandler, name)
}

// StartPhaseSpan starts the span that wraps one pass over all declarations.
func StartPhaseSpan(ctx context.Context, phase string, declarations int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		Phase(phase),
		attribute.Int(AttrDeclarations, declarations),
	}, attrs...)
	return StartSpan(ctx, SpanPhase+"."+phase,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(all...),
	)
}

// StartHandlerSpan starts the span around a single handler invocation.
func StartHandlerSpan(ctx context.Context, phase, storeName, connectionName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		Phase(phase),
		StoreName(storeName),
		ConnectionName(connectionName),
	}, attrs...)
	return StartSpan(ctx, SpanHandler+"."+phase,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}

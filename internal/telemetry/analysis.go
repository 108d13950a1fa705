package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names for analysis operations.
const (
	SpanImpactEvaluate    = "analysis.impact.evaluate"
	SpanImpactEvaluateAll = "analysis.impact.evaluate_all"
	SpanStatistics        = "analysis.statistics.aggregate"
	SpanRegimeSummary     = "analysis.regime.summarize"
	SpanDatasetReload     = "analysis.dataset.reload"
	SpanCacheFetch        = "cache.fetch"
)

// Attribute keys shared by analysis spans.
const (
	AttrEventName      = attribute.Key("oilpulse.event.name")
	AttrWindowDays     = attribute.Key("oilpulse.window_days")
	AttrDatasetVersion = attribute.Key("oilpulse.dataset.version")
	AttrObservations   = attribute.Key("oilpulse.observations")
	AttrEventCount     = attribute.Key("oilpulse.events")
	AttrDataSource     = attribute.Key("oilpulse.data_source")
	AttrCacheKey       = attribute.Key("oilpulse.cache.key")
	AttrCacheHit       = attribute.Key("oilpulse.cache.hit")
)

// EventAttributes describes an impact evaluation request.
func EventAttributes(eventName string, windowDays int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEventName.String(eventName),
		AttrWindowDays.Int(windowDays),
	}
}

// DatasetAttributes describes the dataset a computation ran against.
func DatasetAttributes(version string, observations, events int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrDatasetVersion.String(version),
		AttrObservations.Int(observations),
		AttrEventCount.Int(events),
	}
}

// CacheAttributes describes a cache lookup.
func CacheAttributes(key string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCacheKey.String(key),
		AttrCacheHit.Bool(hit),
	}
}

// StartImpactSpan starts a span around a single event impact evaluation.
func StartImpactSpan(ctx context.Context, eventName string, windowDays int) (context.Context, trace.Span) {
	return StartSpan(ctx, GetAnalysisTracer(), SpanImpactEvaluate, EventAttributes(eventName, windowDays)...)
}

// StartAnalysisSpan starts a span named name on the analysis tracer.
func StartAnalysisSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, GetAnalysisTracer(), name, attrs...)
}

// TraceAnalysis runs fn inside an analysis span, recording its error.
func TraceAnalysis(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartAnalysisSpan(ctx, name, attrs...)
	defer span.End()

	err := fn(ctx)
	RecordError(span, err)
	return err
}

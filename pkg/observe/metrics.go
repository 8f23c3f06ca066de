// Package observe carries the service's OpenTelemetry metrics. Instruments
// are created from an explicit [metric.MeterProvider]; tests pass a provider
// backed by a ManualReader, the server passes the Prometheus bridge from
// [InitProvider].
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hazyhaar/tournee-registry"

// Metrics holds the metric instruments of the service.
type Metrics struct {
	// Lookups counts phrase lookups by outcome:
	//   attribute.String("outcome", ...), attribute.String("transport", ...)
	Lookups metric.Int64Counter

	// LookupDuration tracks the time spent resolving a phrase.
	LookupDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram

	// Imports counts spreadsheet imports by status.
	Imports metric.Int64Counter

	// VocabularyTokens is the number of distinct tokens in the loaded snapshot.
	VocabularyTokens metric.Int64Gauge

	// Records is the number of route records in the loaded snapshot.
	Records metric.Int64Gauge
}

// lookups are in-memory scans; buckets sit well below the HTTP ones.
var lookupBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

var httpBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Lookups, err = m.Int64Counter("tournee.lookups",
		metric.WithDescription("Phrase lookups by outcome."),
	); err != nil {
		return nil, err
	}
	if met.LookupDuration, err = m.Float64Histogram("tournee.lookup.duration",
		metric.WithDescription("Latency of a phrase lookup."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(lookupBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("tournee.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Imports, err = m.Int64Counter("tournee.imports",
		metric.WithDescription("Spreadsheet imports by status."),
	); err != nil {
		return nil, err
	}
	if met.VocabularyTokens, err = m.Int64Gauge("tournee.vocabulary.tokens",
		metric.WithDescription("Distinct address tokens in the loaded snapshot."),
	); err != nil {
		return nil, err
	}
	if met.Records, err = m.Int64Gauge("tournee.records",
		metric.WithDescription("Route records in the loaded snapshot."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordLookup counts one lookup and records its latency. A nil receiver
// records nothing.
func (m *Metrics) RecordLookup(ctx context.Context, outcome, transport string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("transport", transport),
	))
	m.LookupDuration.Record(ctx, d.Seconds())
}

// RecordImport counts one import attempt.
func (m *Metrics) RecordImport(ctx context.Context, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Imports.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSnapshot sets the snapshot gauges after a reload.
func (m *Metrics) RecordSnapshot(ctx context.Context, records, tokens int) {
	if m == nil {
		return
	}
	m.Records.Record(ctx, int64(records))
	m.VocabularyTokens.Record(ctx, int64(tokens))
}

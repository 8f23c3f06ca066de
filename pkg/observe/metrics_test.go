package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumByAttr(t *testing.T, met *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", met.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordLookup(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLookup(ctx, "fuzzy", "http", 2*time.Millisecond)
	m.RecordLookup(ctx, "fuzzy", "mcp", time.Millisecond)
	m.RecordLookup(ctx, "literal", "http", time.Millisecond)

	rm := collect(t, reader)
	met := findMetric(rm, "tournee.lookups")
	if met == nil {
		t.Fatal("tournee.lookups not found")
	}
	if got := sumByAttr(t, met, "outcome", "fuzzy"); got != 2 {
		t.Errorf("fuzzy lookups = %d, want 2", got)
	}
	if got := sumByAttr(t, met, "outcome", "literal"); got != 1 {
		t.Errorf("literal lookups = %d, want 1", got)
	}

	hist := findMetric(rm, "tournee.lookup.duration")
	if hist == nil {
		t.Fatal("tournee.lookup.duration not found")
	}
	h, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok || len(h.DataPoints) == 0 {
		t.Fatal("lookup duration has no histogram data")
	}
	if got := h.DataPoints[0].Count; got != 3 {
		t.Errorf("duration samples = %d, want 3", got)
	}
}

func TestRecordImport(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordImport(ctx, nil)
	m.RecordImport(ctx, errors.New("bad csv"))
	m.RecordImport(ctx, nil)

	met := findMetric(collect(t, reader), "tournee.imports")
	if met == nil {
		t.Fatal("tournee.imports not found")
	}
	if got := sumByAttr(t, met, "status", "ok"); got != 2 {
		t.Errorf("ok imports = %d, want 2", got)
	}
	if got := sumByAttr(t, met, "status", "error"); got != 1 {
		t.Errorf("failed imports = %d, want 1", got)
	}
}

func TestRecordSnapshot(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSnapshot(ctx, 10, 40)
	m.RecordSnapshot(ctx, 12, 41)

	rm := collect(t, reader)
	for name, want := range map[string]int64{
		"tournee.records":           12,
		"tournee.vocabulary.tokens": 41,
	} {
		met := findMetric(rm, name)
		if met == nil {
			t.Fatalf("%s not found", name)
		}
		g, ok := met.Data.(metricdata.Gauge[int64])
		if !ok || len(g.DataPoints) != 1 {
			t.Fatalf("%s: unexpected data %T", name, met.Data)
		}
		if got := g.DataPoints[0].Value; got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordLookup(ctx, "exact", "http", time.Millisecond)
	m.RecordImport(ctx, nil)
	m.RecordSnapshot(ctx, 1, 1)
}

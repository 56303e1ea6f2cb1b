package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/metric/noop"
)

type countingExporter struct {
	NoOpExporter
	lookups int
	err     error
}

func (c *countingExporter) RecordLookup(Result, Labels) error {
	c.lookups++
	return c.err
}

func TestDefaultMetricNames(t *testing.T) {
	names := DefaultMetricNames("")
	if names.HitsTotal != "memoproxy_hits_total" {
		t.Fatalf("Unexpected hits metric name %q", names.HitsTotal)
	}

	cfg := NewDefaultConfig().WithNamespace("svc")
	if cfg.MetricNames.MissesTotal != "svc_misses_total" {
		t.Fatalf("Unexpected misses metric name %q", cfg.MetricNames.MissesTotal)
	}
}

func TestMultiExporterFansOut(t *testing.T) {
	a := &countingExporter{}
	b := &countingExporter{err: errors.New("boom")}
	m := NewMultiExporter(a, b)

	err := m.RecordLookup(ResultHit, nil)
	if err == nil {
		t.Fatal("Expected the failing exporter's error")
	}
	if a.lookups != 1 || b.lookups != 1 {
		t.Fatalf("Expected both exporters to record, got %d and %d", a.lookups, b.lookups)
	}
}

func TestPrometheusExporterCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	exporter, err := NewPrometheusExporter(NewDefaultConfig().WithDurations(true), &PrometheusConfig{Registry: registry})
	if err != nil {
		t.Fatalf("NewPrometheusExporter failed: %v", err)
	}

	labels := Labels{LabelPool: "default"}
	_ = exporter.RecordLookup(ResultHit, labels)
	_ = exporter.RecordLookup(ResultHit, labels)
	_ = exporter.RecordLookup(ResultMiss, labels)
	_ = exporter.RecordSave(true, labels)
	_ = exporter.RecordSave(false, labels)
	_ = exporter.RecordError(OperationGet, labels)
	_ = exporter.RecordDuration(OperationGet, time.Millisecond, labels)

	if got := testutil.ToFloat64(exporter.hitsTotal.WithLabelValues("default")); got != 2 {
		t.Fatalf("Expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.missesTotal.WithLabelValues("default")); got != 1 {
		t.Fatalf("Expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.saveFailuresTotal.WithLabelValues("default")); got != 1 {
		t.Fatalf("Expected 1 save failure, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.errorsTotal.WithLabelValues("default", "get")); got != 1 {
		t.Fatalf("Expected 1 error, got %v", got)
	}
	if err := exporter.RecordLookup(Result("bogus"), labels); err == nil {
		t.Fatal("Expected error for unknown result")
	}
}

func TestPrometheusExporterDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := NewPrometheusExporter(nil, &PrometheusConfig{Registry: registry}); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if _, err := NewPrometheusExporter(nil, &PrometheusConfig{Registry: registry}); err == nil {
		t.Fatal("Expected duplicate registration error")
	}
}

func TestOpenTelemetryExporter(t *testing.T) {
	if _, err := NewOpenTelemetryExporter(nil, nil); err == nil {
		t.Fatal("Expected error without a meter")
	}

	meter := noop.NewMeterProvider().Meter("memoproxy-test")
	exporter, err := NewOpenTelemetryExporter(NewDefaultConfig().WithDurations(true), &OpenTelemetryConfig{Meter: meter})
	if err != nil {
		t.Fatalf("NewOpenTelemetryExporter failed: %v", err)
	}

	labels := Labels{LabelPool: "default"}
	if err := exporter.RecordLookup(ResultMiss, labels); err != nil {
		t.Fatalf("RecordLookup failed: %v", err)
	}
	if err := exporter.RecordSave(true, labels); err != nil {
		t.Fatalf("RecordSave failed: %v", err)
	}
	if err := exporter.RecordDuration(OperationSave, time.Millisecond, labels); err != nil {
		t.Fatalf("RecordDuration failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestConfigLabelsReachPrometheus(t *testing.T) {
	registry := prometheus.NewRegistry()
	cfg := NewDefaultConfig().WithLabels(Labels{"service": "calc"}).WithLabels(Labels{"env": "test"})
	if cfg.Labels["service"] != "calc" || cfg.Labels["env"] != "test" {
		t.Fatalf("Expected merged labels, got %v", cfg.Labels)
	}

	exporter, err := NewPrometheusExporter(cfg, &PrometheusConfig{Registry: registry})
	if err != nil {
		t.Fatalf("NewPrometheusExporter failed: %v", err)
	}
	_ = exporter.RecordLookup(ResultHit, Labels{LabelPool: "default"})

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != cfg.MetricNames.HitsTotal {
			continue
		}
		got := map[string]string{}
		for _, pair := range family.GetMetric()[0].GetLabel() {
			got[pair.GetName()] = pair.GetValue()
		}
		if got["service"] != "calc" || got["env"] != "test" || got[LabelPool] != "default" {
			t.Fatalf("Unexpected labels %v", got)
		}
		return
	}
	t.Fatalf("Metric %s not gathered", cfg.MetricNames.HitsTotal)
}

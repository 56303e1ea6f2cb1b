package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OpenTelemetryExporter implements the Exporter interface for OpenTelemetry metrics
type OpenTelemetryExporter struct {
	config *Config
	ctx    context.Context
	attrs  []attribute.KeyValue

	hits         metric.Int64Counter
	misses       metric.Int64Counter
	saves        metric.Int64Counter
	saveFailures metric.Int64Counter
	errors       metric.Int64Counter
	duration     metric.Float64Histogram
}

// OpenTelemetryConfig holds OpenTelemetry-specific configuration
type OpenTelemetryConfig struct {
	// Meter is the OpenTelemetry meter to use
	Meter metric.Meter

	// Context is the context to use for metric operations
	Context context.Context

	// DefaultAttributes are applied to all metrics
	DefaultAttributes []attribute.KeyValue
}

// NewOpenTelemetryExporter creates a new OpenTelemetry metrics exporter
func NewOpenTelemetryExporter(config *Config, otelConfig *OpenTelemetryConfig) (*OpenTelemetryExporter, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if otelConfig == nil || otelConfig.Meter == nil {
		return nil, fmt.Errorf("OpenTelemetry meter is required")
	}

	ctx := otelConfig.Context
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := append([]attribute.KeyValue(nil), otelConfig.DefaultAttributes...)
	for k, v := range config.Labels {
		attrs = append(attrs, attribute.String(k, v))
	}

	o := &OpenTelemetryExporter{config: config, ctx: ctx, attrs: attrs}
	meter := otelConfig.Meter
	names := config.MetricNames

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&o.hits, names.HitsTotal, "Memoized calls served from the pool"},
		{&o.misses, names.MissesTotal, "Memoized calls that reached the original service"},
		{&o.saves, names.SavesTotal, "Results saved to the pool"},
		{&o.saveFailures, names.SaveFailuresTotal, "Results the pool failed to save"},
		{&o.errors, names.ErrorsTotal, "Backend errors swallowed by the pool"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}

	if config.IncludeDurations {
		histogram, err := meter.Float64Histogram(names.OperationDuration,
			metric.WithDescription("Pool backend operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create duration histogram: %w", err)
		}
		o.duration = histogram
	}

	return o, nil
}

// RecordLookup counts a hit or a miss
func (o *OpenTelemetryExporter) RecordLookup(result Result, labels Labels) error {
	opts := metric.WithAttributes(o.attributes(labels)...)
	switch result {
	case ResultHit:
		o.hits.Add(o.ctx, 1, opts)
	case ResultMiss:
		o.misses.Add(o.ctx, 1, opts)
	default:
		return fmt.Errorf("unknown lookup result %q", result)
	}
	return nil
}

// RecordSave counts a save or a failed save
func (o *OpenTelemetryExporter) RecordSave(ok bool, labels Labels) error {
	opts := metric.WithAttributes(o.attributes(labels)...)
	if ok {
		o.saves.Add(o.ctx, 1, opts)
	} else {
		o.saveFailures.Add(o.ctx, 1, opts)
	}
	return nil
}

// RecordError counts a swallowed backend error
func (o *OpenTelemetryExporter) RecordError(operation Operation, labels Labels) error {
	attrs := append(o.attributes(labels), attribute.String("operation", string(operation)))
	o.errors.Add(o.ctx, 1, metric.WithAttributes(attrs...))
	return nil
}

// RecordDuration records an operation duration when durations are enabled
func (o *OpenTelemetryExporter) RecordDuration(operation Operation, duration time.Duration, labels Labels) error {
	if o.duration == nil {
		return nil
	}
	attrs := append(o.attributes(labels), attribute.String("operation", string(operation)))
	o.duration.Record(o.ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	return nil
}

// Close shuts down the exporter. The meter provider is owned by the caller.
func (o *OpenTelemetryExporter) Close() error {
	return nil
}

func (o *OpenTelemetryExporter) attributes(labels Labels) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(o.attrs)+len(labels))
	attrs = append(attrs, o.attrs...)
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

var _ Exporter = (*OpenTelemetryExporter)(nil)

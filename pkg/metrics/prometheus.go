package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter implements the Exporter interface for Prometheus metrics
type PrometheusExporter struct {
	config *Config

	hitsTotal         *prometheus.CounterVec
	missesTotal       *prometheus.CounterVec
	savesTotal        *prometheus.CounterVec
	saveFailuresTotal *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	// Registry is the Prometheus registry to use (optional, uses default if nil)
	Registry prometheus.Registerer

	// DurationBuckets for the operation duration histogram
	DurationBuckets []float64
}

// NewPrometheusExporter creates a new Prometheus metrics exporter
func NewPrometheusExporter(config *Config, promConfig *PrometheusConfig) (*PrometheusExporter, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if promConfig == nil {
		promConfig = &PrometheusConfig{}
	}

	registry := promConfig.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	buckets := promConfig.DurationBuckets
	if buckets == nil {
		buckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1}
	}

	constLabels := prometheus.Labels{}
	for k, v := range config.Labels {
		constLabels[k] = v
	}

	names := config.MetricNames
	base := []string{LabelPool}
	p := &PrometheusExporter{config: config}

	counters := []struct {
		target **prometheus.CounterVec
		name   string
		help   string
		labels []string
	}{
		{&p.hitsTotal, names.HitsTotal, "Total number of memoized calls served from the pool", base},
		{&p.missesTotal, names.MissesTotal, "Total number of memoized calls that reached the original service", base},
		{&p.savesTotal, names.SavesTotal, "Total number of results saved to the pool", base},
		{&p.saveFailuresTotal, names.SaveFailuresTotal, "Total number of results the pool failed to save", base},
		{&p.errorsTotal, names.ErrorsTotal, "Total number of backend errors swallowed by the pool", append(base, "operation")},
	}

	for _, c := range counters {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        c.name,
			Help:        c.help,
			ConstLabels: constLabels,
		}, c.labels)
		if err := registry.Register(vec); err != nil {
			return nil, fmt.Errorf("register %s: %w", c.name, err)
		}
		*c.target = vec
	}

	if config.IncludeDurations {
		p.operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        names.OperationDuration,
			Help:        "Pool backend operation duration in seconds",
			ConstLabels: constLabels,
			Buckets:     buckets,
		}, append(base, "operation"))
		if err := registry.Register(p.operationDuration); err != nil {
			return nil, fmt.Errorf("register %s: %w", names.OperationDuration, err)
		}
	}

	return p, nil
}

// RecordLookup counts a hit or a miss
func (p *PrometheusExporter) RecordLookup(result Result, labels Labels) error {
	switch result {
	case ResultHit:
		p.hitsTotal.WithLabelValues(labels[LabelPool]).Inc()
	case ResultMiss:
		p.missesTotal.WithLabelValues(labels[LabelPool]).Inc()
	default:
		return fmt.Errorf("unknown lookup result %q", result)
	}
	return nil
}

// RecordSave counts a save or a failed save
func (p *PrometheusExporter) RecordSave(ok bool, labels Labels) error {
	if ok {
		p.savesTotal.WithLabelValues(labels[LabelPool]).Inc()
	} else {
		p.saveFailuresTotal.WithLabelValues(labels[LabelPool]).Inc()
	}
	return nil
}

// RecordError counts a swallowed backend error
func (p *PrometheusExporter) RecordError(operation Operation, labels Labels) error {
	p.errorsTotal.WithLabelValues(labels[LabelPool], string(operation)).Inc()
	return nil
}

// RecordDuration observes an operation duration when durations are enabled
func (p *PrometheusExporter) RecordDuration(operation Operation, duration time.Duration, labels Labels) error {
	if p.operationDuration == nil {
		return nil
	}
	p.operationDuration.WithLabelValues(labels[LabelPool], string(operation)).Observe(duration.Seconds())
	return nil
}

// Close shuts down the exporter
func (p *PrometheusExporter) Close() error {
	return nil
}

var _ Exporter = (*PrometheusExporter)(nil)

package metrics

import (
	"errors"
	"time"
)

// Exporter defines the interface for memoization pool metrics exporters
// This abstraction allows supporting multiple observability systems
type Exporter interface {
	// RecordLookup records the outcome of a GetItem call
	RecordLookup(result Result, labels Labels) error

	// RecordSave records the outcome of a Save call
	RecordSave(ok bool, labels Labels) error

	// RecordError records a backend error swallowed by the pool
	RecordError(operation Operation, labels Labels) error

	// RecordDuration records the time a pool operation spent in its backend
	RecordDuration(operation Operation, duration time.Duration, labels Labels) error

	// Close shuts down the exporter and flushes any pending metrics
	Close() error
}

// Labels represents key-value pairs for metric labels/tags
type Labels map[string]string

// LabelPool is the label carrying the pool name
const LabelPool = "pool"

// Operation represents the pool operations that are measured
type Operation string

const (
	OperationGet    Operation = "get"
	OperationSave   Operation = "save"
	OperationDelete Operation = "delete"
	OperationClear  Operation = "clear"
)

// Result represents the result of a lookup
type Result string

const (
	ResultHit  Result = "hit"
	ResultMiss Result = "miss"
)

// MetricNames defines standard metric names used across exporters
type MetricNames struct {
	HitsTotal         string
	MissesTotal       string
	SavesTotal        string
	SaveFailuresTotal string
	ErrorsTotal       string
	OperationDuration string
}

// DefaultMetricNames returns the default metric names for the given namespace
func DefaultMetricNames(namespace string) MetricNames {
	if namespace == "" {
		namespace = "memoproxy"
	}
	return MetricNames{
		HitsTotal:         namespace + "_hits_total",
		MissesTotal:       namespace + "_misses_total",
		SavesTotal:        namespace + "_saves_total",
		SaveFailuresTotal: namespace + "_save_failures_total",
		ErrorsTotal:       namespace + "_errors_total",
		OperationDuration: namespace + "_operation_duration_seconds",
	}
}

// Config holds configuration for metrics exporters
type Config struct {
	// Namespace prefixes all metric names
	Namespace string

	// Labels are constant labels applied to all metrics
	Labels Labels

	// MetricNames allows customizing metric names
	MetricNames MetricNames

	// IncludeDurations enables the operation duration histogram
	IncludeDurations bool
}

// NewDefaultConfig creates a default metrics configuration
func NewDefaultConfig() *Config {
	return &Config{
		Namespace:   "memoproxy",
		Labels:      make(Labels),
		MetricNames: DefaultMetricNames("memoproxy"),
	}
}

// WithNamespace sets the metrics namespace and derives the metric names from it
func (c *Config) WithNamespace(namespace string) *Config {
	c.Namespace = namespace
	c.MetricNames = DefaultMetricNames(namespace)
	return c
}

// WithLabels adds constant labels to all metrics
func (c *Config) WithLabels(labels Labels) *Config {
	if c.Labels == nil {
		c.Labels = make(Labels)
	}
	for k, v := range labels {
		c.Labels[k] = v
	}
	return c
}

// WithDurations enables the operation duration histogram
func (c *Config) WithDurations(enabled bool) *Config {
	c.IncludeDurations = enabled
	return c
}

// MultiExporter fans every record out to several exporters
type MultiExporter struct {
	exporters []Exporter
}

// NewMultiExporter creates an exporter that writes to multiple backends
func NewMultiExporter(exporters ...Exporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

// RecordLookup records to all configured exporters
func (m *MultiExporter) RecordLookup(result Result, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		errs = append(errs, e.RecordLookup(result, labels))
	}
	return errors.Join(errs...)
}

// RecordSave records to all configured exporters
func (m *MultiExporter) RecordSave(ok bool, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		errs = append(errs, e.RecordSave(ok, labels))
	}
	return errors.Join(errs...)
}

// RecordError records to all configured exporters
func (m *MultiExporter) RecordError(operation Operation, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		errs = append(errs, e.RecordError(operation, labels))
	}
	return errors.Join(errs...)
}

// RecordDuration records to all configured exporters
func (m *MultiExporter) RecordDuration(operation Operation, duration time.Duration, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		errs = append(errs, e.RecordDuration(operation, duration, labels))
	}
	return errors.Join(errs...)
}

// Close closes all configured exporters
func (m *MultiExporter) Close() error {
	var errs []error
	for _, e := range m.exporters {
		errs = append(errs, e.Close())
	}
	return errors.Join(errs...)
}

// NoOpExporter provides a no-op implementation for when metrics are disabled
type NoOpExporter struct{}

// NewNoOpExporter creates a no-op exporter
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

// RecordLookup does nothing
func (n *NoOpExporter) RecordLookup(Result, Labels) error { return nil }

// RecordSave does nothing
func (n *NoOpExporter) RecordSave(bool, Labels) error { return nil }

// RecordError does nothing
func (n *NoOpExporter) RecordError(Operation, Labels) error { return nil }

// RecordDuration does nothing
func (n *NoOpExporter) RecordDuration(Operation, time.Duration, Labels) error { return nil }

// Close does nothing
func (n *NoOpExporter) Close() error { return nil }

var (
	_ Exporter = (*MultiExporter)(nil)
	_ Exporter = (*NoOpExporter)(nil)
)

// Package observability assembles the concrete logger, metrics and tracer
// adapters into the observability.Observability port.
package observability

import (
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics instruments
}

// instruments resolves metric keys to registered collectors, falling back to no-ops
// for keys that were never registered.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok && c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok && h != nil {
		return h
	}
	return observability.NopHistogram()
}

// New registers every known metric on reg and combines it with logger and an
// OpenTelemetry tracer named tracerName. A nil reg disables metrics.
func New(logger observability.Logger, reg prometrics.Registry, tracerName string) observability.Observability {
	if logger == nil {
		logger = observability.NopLogger()
	}
	p := &provider{
		tracer: oteltrace.New(tracerName),
		logger: logger,
	}
	if reg != nil {
		p.metrics.counters, p.metrics.histograms = prometrics.RegisterAll(reg)
	}
	return p
}

func (p *provider) Tracer() observability.Tracer { return p.tracer }

func (p *provider) Logger() observability.Logger { return p.logger }

func (p *provider) Metrics() observability.Metrics { return p.metrics }

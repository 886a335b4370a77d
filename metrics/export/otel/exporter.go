package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() portalgate.MetricsSnapshot
	AuditDropped() uint64
	SessionStats() portalgate.SessionStats
}

type observedCounter struct {
	id         portalgate.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      portalgate.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

type OTelExporter struct {
	source          metricsSource
	registration    metric.Registration
	counters        []observedCounter
	histograms      []observedHistogram
	sessionsLive    metric.Int64ObservableGauge
	sessionsExpired metric.Int64ObservableCounter
	sessionsRevoked metric.Int64ObservableCounter
	auditDropped    metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *portalgate.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers one callback that observes every
// instrument from a single snapshot per collection.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+4)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	var err error
	exporter.sessionsLive, err = meter.Int64ObservableGauge(
		internaldefs.SessionsLiveName,
		metric.WithDescription(internaldefs.SessionsLiveHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions live gauge: %w", err)
	}
	exporter.sessionsExpired, err = meter.Int64ObservableCounter(
		internaldefs.SessionsExpiredName,
		metric.WithDescription(internaldefs.SessionsExpiredHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions expired counter: %w", err)
	}
	exporter.sessionsRevoked, err = meter.Int64ObservableCounter(
		internaldefs.SessionsRevokedName,
		metric.WithDescription(internaldefs.SessionsRevokedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions revoked counter: %w", err)
	}
	exporter.auditDropped, err = meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables,
		exporter.sessionsLive,
		exporter.sessionsExpired,
		exporter.sessionsRevoked,
		exporter.auditDropped,
	)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		for _, h := range exporter.histograms {
			nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[h.id])
			cumulative := internaldefs.CumulativeBuckets(nonCumulative)
			for i := 0; i < len(cumulative); i++ {
				observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
		stats := exporter.source.SessionStats()
		observer.ObserveInt64(exporter.sessionsLive, int64(stats.Live))
		observer.ObserveInt64(exporter.sessionsExpired, int64(stats.Expired))
		observer.ObserveInt64(exporter.sessionsRevoked, int64(stats.Revoked))
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() portalgate.MetricsSnapshot
	AuditDropped() uint64
	SessionStats() portalgate.SessionStats
}

// PrometheusExporter renders engine metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from engine on every scrape.
func NewPrometheusExporter(engine *portalgate.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render with the Prometheus text content type.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current exposition text, or "" when there is nothing to
// report.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	stats := p.source.SessionStats()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 && stats == (portalgate.SessionStats{}) {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeMetric(&b, def.Name, def.Help, "counter", snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeMetric(&b, internaldefs.SessionsLiveName, internaldefs.SessionsLiveHelp, "gauge", uint64(stats.Live))
	writeMetric(&b, internaldefs.SessionsExpiredName, internaldefs.SessionsExpiredHelp, "counter", stats.Expired)
	writeMetric(&b, internaldefs.SessionsRevokedName, internaldefs.SessionsRevokedHelp, "counter", stats.Revoked)
	writeMetric(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter", dropped)

	return b.String()
}

func writeMetric(b *strings.Builder, name, help, kind string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" histogram\n")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Sum is not tracked by the engine.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}

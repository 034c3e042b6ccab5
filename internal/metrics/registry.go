// Package metrics provides Prometheus metrics for the supervisory server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iagro/supervisory/internal/models"
	"github.com/iagro/supervisory/internal/plcsim"
)

const namespace = "supervisory"

// Registry holds all Prometheus metrics for the service.
type Registry struct {
	reg *prometheus.Registry

	// Session metrics
	ActiveSessions   prometheus.Gauge
	WebSocketClients prometheus.Gauge

	// Canvas metrics
	ComponentsAdded   *prometheus.CounterVec
	ComponentsDeleted prometheus.Counter
	PointerEvents     *prometheus.CounterVec
	EditorChanges     *prometheus.CounterVec

	// PLC metrics
	SimulatorTicks prometheus.Counter
	HistoryErrors  prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewRegistry creates a registry with all metrics registered, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of open canvas sessions",
		}),
		WebSocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Number of connected canvas websockets",
		}),
		ComponentsAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "components_added_total",
			Help:      "Components added to canvases by kind",
		}, []string{"kind"}),
		ComponentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "components_deleted_total",
			Help:      "Components removed from canvases",
		}),
		PointerEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "pointer_events_total",
			Help:      "Pointer events handled by type",
		}, []string{"type"}),
		EditorChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "changes_total",
			Help:      "Properties editor changes by field",
		}, []string{"field"}),
		SimulatorTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plc",
			Name:      "ticks_total",
			Help:      "PLC snapshots produced",
		}),
		HistoryErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plc",
			Name:      "history_errors_total",
			Help:      "Snapshots that failed to reach the history store",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
	}
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// UpdateActiveSessions sets the session gauge. It matches session.Observer.
func (r *Registry) UpdateActiveSessions(count int) {
	r.ActiveSessions.Set(float64(count))
}

// WebSocketOpened counts a connected canvas websocket.
func (r *Registry) WebSocketOpened() {
	r.WebSocketClients.Inc()
}

// WebSocketClosed counts a disconnected canvas websocket.
func (r *Registry) WebSocketClosed() {
	r.WebSocketClients.Dec()
}

// RecordComponentAdded counts an added component.
func (r *Registry) RecordComponentAdded(kind models.ComponentKind) {
	r.ComponentsAdded.WithLabelValues(string(kind)).Inc()
}

// RecordComponentDeleted counts a removed component.
func (r *Registry) RecordComponentDeleted() {
	r.ComponentsDeleted.Inc()
}

// RecordPointerEvent counts a handled pointer event.
func (r *Registry) RecordPointerEvent(eventType string) {
	r.PointerEvents.WithLabelValues(eventType).Inc()
}

// RecordEditorChange counts an editor field change.
func (r *Registry) RecordEditorChange(field string) {
	r.EditorChanges.WithLabelValues(field).Inc()
}

// RecordHTTPRequest counts a served request.
func (r *Registry) RecordHTTPRequest(method, code string) {
	r.HTTPRequests.WithLabelValues(method, code).Inc()
}

// InstrumentRecorder wraps next so every snapshot and every failed write is
// counted. next may be nil.
func (r *Registry) InstrumentRecorder(next plcsim.Recorder) plcsim.Recorder {
	return &instrumentedRecorder{next: next, r: r}
}

type instrumentedRecorder struct {
	next plcsim.Recorder
	r    *Registry
}

func (i *instrumentedRecorder) Record(ctx context.Context, vars []models.PlcVariable, at time.Time) error {
	i.r.SimulatorTicks.Inc()
	if i.next == nil {
		return nil
	}
	err := i.next.Record(ctx, vars, at)
	if err != nil {
		i.r.HistoryErrors.Inc()
	}
	return err
}

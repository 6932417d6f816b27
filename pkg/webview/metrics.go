package webview

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects bridge-level counters and exposes them through expvar.
// Thread-safe for concurrent use.
//
// Example usage:
//
//	metrics := webview.NewMetrics()
//	metrics.RegisterExpvar()
//	// import _ "expvar" serves them at /debug/vars.
type Metrics struct {
	clientsCreated    atomic.Int64
	crashes           atomic.Int64
	recoveries        atomic.Int64
	paintsRequested   atomic.Int64
	paintsCompleted   atomic.Int64
	stalePaints       atomic.Int64
	coalescedRepaints atomic.Int64
	staleEvents       atomic.Int64
	fileRequests      atomic.Int64
	fileRequestErrors atomic.Int64
	errorsTotal       atomic.Int64
	eventsEmitted     atomic.Int64

	paintLatencyNs    atomic.Int64
	paintLatencyCount atomic.Int64

	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// Safe to call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	counters := []struct {
		name string
		v    *atomic.Int64
	}{
		{"webview_clients_created_total", &m.clientsCreated},
		{"webview_crashes_total", &m.crashes},
		{"webview_recoveries_total", &m.recoveries},
		{"webview_paints_requested_total", &m.paintsRequested},
		{"webview_paints_completed_total", &m.paintsCompleted},
		{"webview_stale_paints_total", &m.stalePaints},
		{"webview_coalesced_repaints_total", &m.coalescedRepaints},
		{"webview_stale_events_total", &m.staleEvents},
		{"webview_file_requests_total", &m.fileRequests},
		{"webview_file_request_errors_total", &m.fileRequestErrors},
		{"webview_errors_total", &m.errorsTotal},
		{"webview_events_emitted_total", &m.eventsEmitted},
	}
	for _, c := range counters {
		v := c.v
		expvar.Publish(c.name, expvar.Func(func() any { return v.Load() }))
	}

	expvar.Publish("webview_paint_latency_avg_ms", expvar.Func(func() any {
		count := m.paintLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.paintLatencyNs.Load()) / float64(count) / 1e6
	}))
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	ClientsCreated    int64
	Crashes           int64
	Recoveries        int64
	PaintsRequested   int64
	PaintsCompleted   int64
	StalePaints       int64
	CoalescedRepaints int64
	StaleEvents       int64
	FileRequests      int64
	FileRequestErrors int64
	ErrorsTotal       int64
	EventsEmitted     int64

	PaintLatencyAvg time.Duration
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ClientsCreated:    m.clientsCreated.Load(),
		Crashes:           m.crashes.Load(),
		Recoveries:        m.recoveries.Load(),
		PaintsRequested:   m.paintsRequested.Load(),
		PaintsCompleted:   m.paintsCompleted.Load(),
		StalePaints:       m.stalePaints.Load(),
		CoalescedRepaints: m.coalescedRepaints.Load(),
		StaleEvents:       m.staleEvents.Load(),
		FileRequests:      m.fileRequests.Load(),
		FileRequestErrors: m.fileRequestErrors.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		EventsEmitted:     m.eventsEmitted.Load(),
		PaintLatencyAvg:   safeDivide(m.paintLatencyNs.Load(), m.paintLatencyCount.Load()),
	}
}

// IncrementClientsCreated records a renderer connection.
func (m *Metrics) IncrementClientsCreated() { m.clientsCreated.Add(1) }

// IncrementCrashes records a renderer crash.
func (m *Metrics) IncrementCrashes() { m.crashes.Add(1) }

// IncrementRecoveries records a completed crash recovery.
func (m *Metrics) IncrementRecoveries() { m.recoveries.Add(1) }

// IncrementPaintsRequested records a paint command sent to a renderer.
func (m *Metrics) IncrementPaintsRequested() { m.paintsRequested.Add(1) }

// IncrementPaintsCompleted records an accepted did-paint.
func (m *Metrics) IncrementPaintsCompleted() { m.paintsCompleted.Add(1) }

// IncrementStalePaints records a did-paint for a superseded bitmap.
func (m *Metrics) IncrementStalePaints() { m.stalePaints.Add(1) }

// IncrementCoalescedRepaints records a repaint folded into one in flight.
func (m *Metrics) IncrementCoalescedRepaints() { m.coalescedRepaints.Add(1) }

// IncrementStaleEvents records a notification from a replaced renderer.
func (m *Metrics) IncrementStaleEvents() { m.staleEvents.Add(1) }

// IncrementFileRequests records a renderer file request.
func (m *Metrics) IncrementFileRequests() { m.fileRequests.Add(1) }

// IncrementFileRequestErrors records a file request that failed to open.
func (m *Metrics) IncrementFileRequestErrors() { m.fileRequestErrors.Add(1) }

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() { m.errorsTotal.Add(1) }

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() { m.eventsEmitted.Add(1) }

// RecordPaintLatency records the time from paint request to did-paint.
func (m *Metrics) RecordPaintLatency(d time.Duration) {
	m.paintLatencyNs.Add(d.Nanoseconds())
	m.paintLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, v := range []*atomic.Int64{
		&m.clientsCreated, &m.crashes, &m.recoveries,
		&m.paintsRequested, &m.paintsCompleted, &m.stalePaints,
		&m.coalescedRepaints, &m.staleEvents, &m.fileRequests,
		&m.fileRequestErrors, &m.errorsTotal, &m.eventsEmitted,
		&m.paintLatencyNs, &m.paintLatencyCount,
	} {
		v.Store(0)
	}
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

package prometheus

import (
	"strconv"
	"time"

	"github.com/matteobertozzi/r5lrpc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rpcMetrics is the Prometheus implementation of metrics.RpcMetrics.
type rpcMetrics struct {
	callsTotal       *prometheus.CounterVec
	callDuration     *prometheus.HistogramVec
	callsInFlight    *prometheus.GaugeVec
	frameBytes       *prometheus.HistogramVec
	activeConns      prometheus.Gauge
	connsAccepted    prometheus.Counter
	connsClosed      prometheus.Counter
	connsForceClosed prometheus.Counter
	queueDepth       prometheus.Gauge
	timeoutsTotal    *prometheus.CounterVec
}

// NewRpcMetrics creates a new Prometheus-backed RpcMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRpcMetrics() metrics.RpcMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &rpcMetrics{
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "r5lrpc_calls_total",
				Help: "Total number of completed RPC calls by message type, service, and status",
			},
			[]string{"msg_type", "service_id", "status"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "r5lrpc_call_duration_milliseconds",
				Help: "Duration of RPC calls in milliseconds",
				Buckets: []float64{
					0.1,  // 100us - header-only calls
					0.5,  // 500us
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s - slow calls, likely blocked on I/O
				},
			},
			[]string{"msg_type", "service_id"},
		),
		callsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "r5lrpc_calls_in_flight",
				Help: "Current number of in-flight calls by service",
			},
			[]string{"service_id"},
		),
		frameBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "r5lrpc_frame_payload_bytes",
				Help: "Distribution of frame payload sizes crossing the wire",
				Buckets: []float64{
					64,      // header-only
					512,     // short struct body
					4096,    // default small buffer
					65536,   // default medium buffer
					1048576, // default large buffer
				},
			},
			[]string{"direction"},
		),
		activeConns: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "r5lrpc_active_connections",
				Help: "Current number of active RPC connections",
			},
		),
		connsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "r5lrpc_connections_accepted_total",
				Help: "Total number of accepted RPC connections",
			},
		),
		connsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "r5lrpc_connections_closed_total",
				Help: "Total number of cleanly closed RPC connections",
			},
		),
		connsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "r5lrpc_connections_force_closed_total",
				Help: "Total number of connections forcibly closed past the outbound high-water mark",
			},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "r5lrpc_async_queue_depth",
				Help: "Current number of requests awaiting dispatch on the async queue",
			},
		),
		timeoutsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "r5lrpc_client_timeouts_total",
				Help: "Total number of client calls that timed out waiting for a correlated reply",
			},
			[]string{"service_id"},
		),
	}
}

func (m *rpcMetrics) RecordCall(msgType string, serviceID string, duration time.Duration, statusCode uint32) {
	if m == nil {
		return
	}

	status := "ok"
	if statusCode != 0 {
		status = strconv.FormatUint(uint64(statusCode), 10)
	}

	m.callsTotal.WithLabelValues(msgType, serviceID, status).Inc()
	m.callDuration.WithLabelValues(msgType, serviceID).Observe(duration.Seconds() * 1000)
}

func (m *rpcMetrics) RecordCallStart(serviceID string) {
	if m == nil {
		return
	}
	m.callsInFlight.WithLabelValues(serviceID).Inc()
}

func (m *rpcMetrics) RecordCallEnd(serviceID string) {
	if m == nil {
		return
	}
	m.callsInFlight.WithLabelValues(serviceID).Dec()
}

func (m *rpcMetrics) RecordFrameBytes(direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.frameBytes.WithLabelValues(direction).Observe(float64(bytes))
}

func (m *rpcMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConns.Set(float64(count))
}

func (m *rpcMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connsAccepted.Inc()
}

func (m *rpcMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connsClosed.Inc()
}

func (m *rpcMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connsForceClosed.Inc()
}

func (m *rpcMetrics) SetQueueDepth(count int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(count))
}

func (m *rpcMetrics) RecordTimeout(serviceID string) {
	if m == nil {
		return
	}
	m.timeoutsTotal.WithLabelValues(serviceID).Inc()
}

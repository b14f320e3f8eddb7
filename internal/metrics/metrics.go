// Package metrics holds the Prometheus collectors for client lifecycle operations
// and live peer state. All methods are safe on a nil *Metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// PeerSample is one peer's live counters, labelled by client name.
type PeerSample struct {
	Client        string
	PublicKey     string
	LastHandshake time.Time
	ReceiveBytes  int64
	TransmitBytes int64
}

type Metrics struct {
	Registry *prometheus.Registry

	OperationsTotal       *prometheus.CounterVec // wgward_operations_total{operation,result}
	LiveSyncFailuresTotal prometheus.Counter     // wgward_live_sync_failures_total
	Clients               prometheus.Gauge       // wgward_clients

	PeerLastHandshake *prometheus.GaugeVec // wgward_peer_last_handshake_seconds{client,public_key}
	PeerReceiveBytes  *prometheus.GaugeVec // wgward_peer_receive_bytes{client,public_key}
	PeerTransmitBytes *prometheus.GaugeVec // wgward_peer_transmit_bytes{client,public_key}
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	peerLabels := []string{"client", "public_key"}

	return &Metrics{
		Registry: registry,

		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wgward_operations_total",
			Help: "Client lifecycle operations by operation and result",
		}, []string{"operation", "result"}),

		LiveSyncFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wgward_live_sync_failures_total",
			Help: "Failed attempts to apply the server config to the live interface",
		}),

		Clients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wgward_clients",
			Help: "Number of known clients",
		}),

		PeerLastHandshake: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wgward_peer_last_handshake_seconds",
			Help: "Unix time of the peer's latest handshake (0 = never)",
		}, peerLabels),

		PeerReceiveBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wgward_peer_receive_bytes",
			Help: "Bytes received from the peer",
		}, peerLabels),

		PeerTransmitBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wgward_peer_transmit_bytes",
			Help: "Bytes transmitted to the peer",
		}, peerLabels),
	}
}

func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}

	result := ResultSuccess

	if err != nil {
		result = ResultError
	}

	m.OperationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) SyncFailed() {
	if m == nil {
		return
	}

	m.LiveSyncFailuresTotal.Inc()
}

func (m *Metrics) SetClients(count int) {
	if m == nil {
		return
	}

	m.Clients.Set(float64(count))
}

// ObservePeers replaces the per-peer gauges with the given snapshot.
func (m *Metrics) ObservePeers(samples []PeerSample) {
	if m == nil {
		return
	}

	m.PeerLastHandshake.Reset()
	m.PeerReceiveBytes.Reset()
	m.PeerTransmitBytes.Reset()

	for _, sample := range samples {
		var handshake float64

		if !sample.LastHandshake.IsZero() {
			handshake = float64(sample.LastHandshake.Unix())
		}

		m.PeerLastHandshake.WithLabelValues(sample.Client, sample.PublicKey).Set(handshake)
		m.PeerReceiveBytes.WithLabelValues(sample.Client, sample.PublicKey).Set(float64(sample.ReceiveBytes))
		m.PeerTransmitBytes.WithLabelValues(sample.Client, sample.PublicKey).Set(float64(sample.TransmitBytes))
	}
}

// WriteTextfile writes the registry in node-exporter textfile collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return errors.New("metrics are disabled")
	}

	return prometheus.WriteToTextfile(path, m.Registry)
}

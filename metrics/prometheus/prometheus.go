// Package prometheus provides a Prometheus-backed smbprovider.Metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements smbprovider.Metrics with Prometheus collectors.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

// New registers the provider collectors on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbprovider_operations_total",
				Help: "Total number of provider operations by operation and status",
			},
			[]string{"op", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "smbprovider_operation_duration_seconds",
				Help: "Duration of provider operations in seconds",
				Buckets: []float64{
					0.001, // metadata on a LAN
					0.005,
					0.01,
					0.05,
					0.1,
					0.5,
					1,
					5,
					30, // large transfers
				},
			},
			[]string{"op"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbprovider_bytes_total",
				Help: "Total payload bytes moved by read and write",
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) ObserveOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(op, status).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *Metrics) ObserveBytes(op string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTotal.WithLabelValues(op).Add(float64(n))
}

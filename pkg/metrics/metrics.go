package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics accommodation counters and latencies.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Verifications        *prometheus.CounterVec
	Unverifications      *prometheus.CounterVec
	AllocationsCreated   *prometheus.CounterVec
	AllocationsRemoved   *prometheus.CounterVec
	AllocationRejections *prometheus.CounterVec
	AutoAllocateDuration prometheus.Histogram
}

// New registers all metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campdesk_verifications_total",
			Help: "Registrations verified, by method",
		}, []string{"method"}),
		Unverifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campdesk_unverifications_total",
			Help: "Registrations unverified, by whether an allocation was force-removed",
		}, []string{"forced"}),
		AllocationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campdesk_allocations_created_total",
			Help: "Room allocations created, by mode",
		}, []string{"mode"}),
		AllocationsRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campdesk_allocations_removed_total",
			Help: "Room allocations removed, by reason",
		}, []string{"reason"}),
		AllocationRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campdesk_allocation_rejections_total",
			Help: "Manual allocations rejected, by reason",
		}, []string{"reason"}),
		AutoAllocateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "campdesk_auto_allocate_duration_seconds",
			Help:    "Duration of AutoAllocate batches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncVerified records a successful verification
func (m *Metrics) IncVerified(method string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(method).Inc()
}

// IncUnverified records a successful unverification
func (m *Metrics) IncUnverified(forced bool) {
	if m == nil {
		return
	}
	label := "false"
	if forced {
		label = "true"
	}
	m.Unverifications.WithLabelValues(label).Inc()
}

// AddAllocated records n created allocations
func (m *Metrics) AddAllocated(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AllocationsCreated.WithLabelValues(mode).Add(float64(n))
}

// AddRemoved records n removed allocations
func (m *Metrics) AddRemoved(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AllocationsRemoved.WithLabelValues(reason).Add(float64(n))
}

// IncRejected records a rejected manual allocation
func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.AllocationRejections.WithLabelValues(reason).Inc()
}

// ObserveAutoAllocate records the duration of an AutoAllocate batch.
// Call with time.Now() taken at the start of the batch.
func (m *Metrics) ObserveAutoAllocate(start time.Time) {
	if m == nil {
		return
	}
	m.AutoAllocateDuration.Observe(time.Since(start).Seconds())
}

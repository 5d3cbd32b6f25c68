package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ReportsSubmittedTotal counts successfully created waste reports.
	ReportsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "greenloop",
		Subsystem: "lifecycle",
		Name:      "reports_submitted_total",
		Help:      "Total number of waste reports created.",
	})

	// ClaimsTotal counts task claim attempts by result.
	ClaimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenloop",
		Subsystem: "lifecycle",
		Name:      "claims_total",
		Help:      "Total number of collection task claim attempts, labeled by result.",
	}, []string{"result"})

	// VerificationsTotal counts verification attempts by result.
	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenloop",
		Subsystem: "lifecycle",
		Name:      "verifications_total",
		Help:      "Total number of collection verification attempts, labeled by result.",
	}, []string{"result"})

	// RedemptionsTotal counts point redemption attempts by result.
	RedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenloop",
		Subsystem: "rewards",
		Name:      "redemptions_total",
		Help:      "Total number of point redemption attempts, labeled by result.",
	}, []string{"result"})

	// ClassifierDurationSeconds measures vision model round trips.
	ClassifierDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "greenloop",
		Subsystem: "classifier",
		Name:      "request_duration_seconds",
		Help:      "Time spent calling the image classification service.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	})
)

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsSubmittedTotal,
			ClaimsTotal,
			VerificationsTotal,
			RedemptionsTotal,
			ClassifierDurationSeconds,
		)
	})
}

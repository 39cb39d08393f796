package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowDuration tracks the latency of each workflow invocation
	WorkflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "workflow_duration_seconds",
			Help: "Duration of workflow invocations in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"workflow", "status"}, // status: success or failed
	)

	// PromotionsGranted counts promotional slots actually handed out
	PromotionsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promotions_granted_total",
			Help: "Number of promotional slots granted to new guide accounts",
		},
	)

	// PromotionsSkipped counts creation events that did not get a slot
	PromotionsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotions_skipped_total",
			Help: "Number of user creation events that did not receive a promotion",
		},
		[]string{"reason"}, // category, capacity, already_granted
	)

	// WebhookEvents counts payment webhook deliveries by outcome
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment provider webhook deliveries by outcome",
		},
		[]string{"outcome"}, // processed, ignored, shed, failed
	)
)

// RecordWorkflowDuration records the duration of a single workflow invocation
func RecordWorkflowDuration(workflow, status string, duration float64) {
	WorkflowDuration.WithLabelValues(workflow, status).Observe(duration)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	availabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_availability_checks_total",
			Help: "Availability checks by outcome",
		},
		[]string{"result"},
	)

	offerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_offer_transitions_total",
			Help: "Offer lifecycle transitions",
		},
		[]string{"transition", "status"},
	)

	eventTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_event_transitions_total",
			Help: "Event lifecycle transitions",
		},
		[]string{"transition", "status"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cancellations_total",
			Help: "Cancelled requests by penalty tier",
		},
		[]string{"tier"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_notifications_total",
			Help: "Notification deliveries by event type and outcome",
		},
		[]string{"event_type", "status"},
	)

	deadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_notifications_dead_lettered_total",
			Help: "Notifications that exhausted their retries",
		},
		[]string{"event_type"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_operation_duration_seconds",
			Help:    "Duration of engine operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordAvailability counts one availability check
func RecordAvailability(available bool, err error) {
	switch {
	case err != nil:
		availabilityChecks.WithLabelValues("error").Inc()
	case available:
		availabilityChecks.WithLabelValues("available").Inc()
	default:
		availabilityChecks.WithLabelValues("conflict").Inc()
	}
}

// RecordOfferTransition counts create/select/reject/accept calls
func RecordOfferTransition(transition string, err error) {
	offerTransitions.WithLabelValues(transition, outcome(err)).Inc()
}

// RecordEventTransition counts start/complete calls
func RecordEventTransition(transition string, err error) {
	eventTransitions.WithLabelValues(transition, outcome(err)).Inc()
}

// RecordCancellation counts a successful cancellation
func RecordCancellation(tier string) {
	if tier == "" {
		tier = "none"
	}
	cancellations.WithLabelValues(tier).Inc()
}

// RecordNotification counts a delivery attempt
func RecordNotification(eventType string, err error) {
	notifications.WithLabelValues(eventType, outcome(err)).Inc()
}

// RecordDeadLetter counts a notification given up on
func RecordDeadLetter(eventType string) {
	deadLetters.WithLabelValues(eventType).Inc()
}

// ObserveDuration records the time since start for an operation
func ObserveDuration(operation string, start time.Time) {
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "room_booking",
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "room_booking",
			Name:      "transitions_total",
			Help:      "Count of committed booking transitions by action.",
		},
		[]string{"action"},
	)

	conflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "room_booking",
			Name:      "conflicts_total",
			Help:      "Count of create or update requests rejected for overlapping an active booking.",
		},
	)

	bulkApproveItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "room_booking",
			Name:      "bulk_approve_items_total",
			Help:      "Count of bulk approval items by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, transitions, conflicts, bulkApproveItems)
	})
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncTransition(action string) {
	transitions.WithLabelValues(action).Inc()
}

func IncConflict() {
	conflicts.Inc()
}

func IncBulkApproveItem(outcome string) {
	bulkApproveItems.WithLabelValues(outcome).Inc()
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_sweep_runs_total",
		Help: "Expiry sweep passes by outcome (ok, partial, error).",
	}, []string{"outcome"})

	SweepOrdersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_sweep_orders_expired_total",
		Help: "Pending orders expired by the sweeper.",
	})

	SweepSeatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_sweep_seats_released_total",
		Help: "Seats returned to available by the sweeper.",
	})

	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_sweep_failures_total",
		Help: "Per-order or per-seat sweep transactions that rolled back.",
	})

	SeatLockConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_seat_lock_conflicts_total",
		Help: "Lock requests rejected because a seat was taken.",
	})

	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_tickets_issued_total",
		Help: "Tickets issued by payment verification.",
	})

	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_admissions_total",
		Help: "Admission attempts by result.",
	}, []string{"result"})

	RequestsThrottled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_requests_throttled_total",
		Help: "Requests refused by the token bucket, by route.",
	}, []string{"route"})
)

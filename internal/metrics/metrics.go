package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes.
const (
	OutcomeAdmitted = "admitted"
	OutcomeDailyCap = "daily_cap"
	OutcomeSlotCap  = "slot_cap"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the scheduling counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	bookings    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_attempts_total",
			Help: "Booking attempts by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Appointment status transitions by target status.",
		}, []string{"to"}),
	}
	reg.MustRegister(m.bookings, m.transitions)
	return m
}

func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

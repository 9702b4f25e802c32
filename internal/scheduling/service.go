package scheduling

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"healthcare-booking-api/internal/metrics"
	"healthcare-booking-api/internal/model"
)

// Store is the record store behind the scheduling core. Lookups that match
// nothing return model.ErrNoRecord.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)

	// UpdateAppointmentStatus moves an appointment from one status to
	// another. It returns model.ErrNoRecord when no appointment with the
	// given id currently has status from.
	UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status) error

	// WithDoctorLock runs fn while holding an exclusive lock on the doctor's
	// bookings, passing the doctor as read under that lock. Returns
	// model.ErrNoRecord if no user has doctorID.
	WithDoctorLock(ctx context.Context, doctorID string, fn func(tx Tx, doctor *model.User) error) error
}

// Tx is the view of the store available while a doctor lock is held.
type Tx interface {
	Counter
	InsertAppointment(ctx context.Context, a *model.Appointment) error
}

// Caller is the authenticated identity making a request.
type Caller struct {
	ID   string
	Role model.Role
}

type Service struct {
	store   Store
	dir     Directory
	checker Checker
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option    { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(st Store, dir Directory, opts ...Option) *Service {
	s := &Service{
		store: st,
		dir:   dir,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) today() model.Date { return model.Today(s.now) }

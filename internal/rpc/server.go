package rpc

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"healthcare-booking-api/internal/middleware"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

// Server adapts the scheduling facade to BookingServer.
type Server struct {
	svc *scheduling.Service
	log zerolog.Logger
}

func NewServer(svc *scheduling.Service, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

// Options configures the grpc.Server built by NewGRPCServer.
type Options struct {
	Secret  string
	Limiter *middleware.RateLimiter
	Logger  zerolog.Logger
}

// NewGRPCServer builds a server with BookingService and grpc.health.v1
// registered behind the logging, rate-limit and auth interceptors.
func NewGRPCServer(svc *scheduling.Service, opts Options) (*grpc.Server, *health.Server) {
	open := map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
	}
	limited := map[string]bool{
		FullMethod("Book"): true,
	}

	interceptors := []grpc.UnaryServerInterceptor{middleware.UnaryLogger(opts.Logger)}
	if opts.Limiter != nil {
		interceptors = append(interceptors, middleware.UnaryRateLimit(opts.Limiter, limited))
	}
	interceptors = append(interceptors, middleware.Auth(opts.Secret, open))

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterBookingServer(srv, NewServer(svc, opts.Logger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv, hs
}

// statusOf maps core errors onto gRPC codes.
func (s *Server) statusOf(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, scheduling.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, scheduling.ErrCapacityExceeded):
		return status.Error(codes.ResourceExhausted, string(scheduling.CapacityReasonOf(err))+": "+err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, scheduling.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	s.log.Error().Err(err).Msg("rpc failed")
	return status.Error(codes.Internal, "internal error")
}

func caller(ctx context.Context) (scheduling.Caller, error) {
	c, ok := middleware.CallerFrom(ctx)
	if !ok {
		return c, status.Error(codes.Unauthenticated, "no caller")
	}
	return c, nil
}

func toAppointment(a *model.Appointment) *Appointment {
	return &Appointment{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Date:      a.Date,
		Time:      a.Time,
		Status:    a.Status,
		Reason:    a.Reason,
	}
}

func toList(in []model.Appointment) *AppointmentList {
	out := &AppointmentList{Appointments: make([]Appointment, len(in))}
	for i := range in {
		out.Appointments[i] = *toAppointment(&in[i])
	}
	return out
}

func (s *Server) Book(ctx context.Context, req *BookRequest) (*Appointment, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	var date model.Date
	if req.Date != "" {
		if date, err = model.ParseDate(req.Date); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	a, err := s.svc.Book(ctx, c, scheduling.BookRequest{
		DoctorID: req.DoctorID,
		Date:     date,
		Time:     req.Time,
		Reason:   req.Reason,
	})
	if err != nil {
		return nil, s.statusOf(err)
	}
	return toAppointment(a), nil
}

func (s *Server) Cancel(ctx context.Context, req *AppointmentRef) (*Appointment, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Cancel(ctx, c, req.ID)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return toAppointment(a), nil
}

func (s *Server) Complete(ctx context.Context, req *AppointmentRef) (*Appointment, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.Complete(ctx, c, req.ID)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return toAppointment(a), nil
}

type lister func(context.Context, scheduling.Caller) ([]model.Appointment, error)

func (s *Server) list(ctx context.Context, fn lister) (*AppointmentList, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := fn(ctx, c)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return toList(appts), nil
}

func (s *Server) ListDoctorBooked(ctx context.Context, _ *Empty) (*AppointmentList, error) {
	return s.list(ctx, s.svc.ListDoctorBooked)
}

func (s *Server) ListDoctorToday(ctx context.Context, _ *Empty) (*AppointmentList, error) {
	return s.list(ctx, s.svc.ListDoctorToday)
}

func (s *Server) ListDoctorPast(ctx context.Context, _ *Empty) (*AppointmentList, error) {
	return s.list(ctx, s.svc.ListDoctorPast)
}

func (s *Server) ListPatientPast(ctx context.Context, _ *Empty) (*AppointmentList, error) {
	return s.list(ctx, s.svc.ListPatientPast)
}

func (s *Server) ListPatientUpcoming(ctx context.Context, _ *Empty) (*UpcomingList, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	up, err := s.svc.ListPatientUpcoming(ctx, c)
	if err != nil {
		return nil, s.statusOf(err)
	}
	out := &UpcomingList{Appointments: make([]UpcomingAppointment, len(up))}
	for i := range up {
		out.Appointments[i] = UpcomingAppointment{
			Appointment: *toAppointment(&up[i].Appointment),
			DoctorName:  up[i].DoctorName,
		}
	}
	return out, nil
}

func (s *Server) SetAvailability(ctx context.Context, req *model.Availability) (*model.Availability, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.SetAvailability(ctx, c, *req)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return a, nil
}

func (s *Server) GetAvailability(ctx context.Context, _ *Empty) (*model.Availability, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.svc.GetAvailability(ctx, c)
	if err != nil {
		return nil, s.statusOf(err)
	}
	return a, nil
}

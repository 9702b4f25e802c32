package scheduling

import (
	"context"
	"errors"
	"fmt"

	"healthcare-booking-api/internal/model"
)

// UnknownDoctorName is shown when an upcoming appointment's doctor no
// longer resolves.
const UnknownDoctorName = "Unknown"

type UpcomingAppointment struct {
	model.Appointment
	DoctorName string
}

func requireRole(c Caller, r model.Role) error {
	if c.Role != r {
		return forbidden("only " + string(r) + "s can access this")
	}
	return nil
}

func (s *Service) list(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	out, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// ListDoctorBooked returns the doctor's appointments that are still booked.
func (s *Service) ListDoctorBooked(ctx context.Context, caller Caller) ([]model.Appointment, error) {
	if err := requireRole(caller, model.RoleDoctor); err != nil {
		return nil, err
	}
	return s.list(ctx, model.AppointmentFilter{
		DoctorID: &caller.ID,
		Status:   model.Ptr(model.StatusBooked),
	})
}

// ListDoctorToday returns all of today's appointments for the doctor, in any status.
func (s *Service) ListDoctorToday(ctx context.Context, caller Caller) ([]model.Appointment, error) {
	if err := requireRole(caller, model.RoleDoctor); err != nil {
		return nil, err
	}
	today := s.today()
	return s.list(ctx, model.AppointmentFilter{
		DoctorID: &caller.ID,
		Date:     &today,
	})
}

func (s *Service) ListDoctorPast(ctx context.Context, caller Caller) ([]model.Appointment, error) {
	if err := requireRole(caller, model.RoleDoctor); err != nil {
		return nil, err
	}
	today := s.today()
	return s.list(ctx, model.AppointmentFilter{
		DoctorID:   &caller.ID,
		DateBefore: &today,
	})
}

// ListPatientUpcoming returns the patient's booked appointments from today
// on, each with the doctor's name.
func (s *Service) ListPatientUpcoming(ctx context.Context, caller Caller) ([]UpcomingAppointment, error) {
	if err := requireRole(caller, model.RolePatient); err != nil {
		return nil, err
	}
	today := s.today()
	appts, err := s.list(ctx, model.AppointmentFilter{
		PatientID: &caller.ID,
		DateFrom:  &today,
		Status:    model.Ptr(model.StatusBooked),
	})
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	out := make([]UpcomingAppointment, 0, len(appts))
	for _, a := range appts {
		name, ok := names[a.DoctorID]
		if !ok {
			name, err = s.doctorName(ctx, a.DoctorID)
			if err != nil {
				return nil, err
			}
			names[a.DoctorID] = name
		}
		out = append(out, UpcomingAppointment{Appointment: a, DoctorName: name})
	}
	return out, nil
}

func (s *Service) doctorName(ctx context.Context, id string) (string, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, model.ErrNoRecord) {
		return UnknownDoctorName, nil
	}
	if err != nil {
		return "", fmt.Errorf("get doctor: %w", err)
	}
	return u.FullName, nil
}

func (s *Service) ListPatientPast(ctx context.Context, caller Caller) ([]model.Appointment, error) {
	if err := requireRole(caller, model.RolePatient); err != nil {
		return nil, err
	}
	today := s.today()
	return s.list(ctx, model.AppointmentFilter{
		PatientID:  &caller.ID,
		DateBefore: &today,
	})
}

package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"healthcare-booking-api/internal/metrics"
	"healthcare-booking-api/internal/model"
)

// transitions lists the allowed status moves. Canceled and completed are
// terminal.
var transitions = map[model.Status][]model.Status{
	model.StatusBooked: {model.StatusCanceled, model.StatusCompleted},
}

func canTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type BookRequest struct {
	DoctorID string
	Date     model.Date
	Time     string
	Reason   string
}

// Book creates a booked appointment for the calling patient. The capacity
// check and the insert run under the doctor's lock so concurrent bookings
// cannot overshoot either cap.
func (s *Service) Book(ctx context.Context, caller Caller, req BookRequest) (*model.Appointment, error) {
	if caller.Role != model.RolePatient {
		s.metrics.Booking(metrics.OutcomeRejected)
		return nil, forbidden("only patients can book")
	}
	slot := strings.TrimSpace(req.Time)
	switch {
	case req.DoctorID == "":
		return nil, invalidInput("doctor id required")
	case req.Date.IsZero():
		return nil, invalidInput("date required")
	case slot == "":
		return nil, invalidInput("time required")
	}

	a := &model.Appointment{
		ID:        uuid.New().String(),
		DoctorID:  req.DoctorID,
		PatientID: caller.ID,
		Date:      req.Date,
		Time:      slot,
		Status:    model.StatusBooked,
		Reason:    req.Reason,
	}

	err := s.store.WithDoctorLock(ctx, req.DoctorID, func(tx Tx, doctor *model.User) error {
		if !doctor.IsDoctor() {
			return model.ErrNoRecord
		}
		if err := s.checker.CanBook(ctx, tx, doctor, a.Date, a.Time); err != nil {
			return err
		}
		return tx.InsertAppointment(ctx, a)
	})
	if err != nil {
		var ce *CapacityError
		switch {
		case errors.Is(err, model.ErrNoRecord):
			s.metrics.Booking(metrics.OutcomeRejected)
			return nil, notFound("doctor not found")
		case errors.As(err, &ce):
			s.metrics.Booking(string(ce.Reason))
			s.log.Info().
				Str("doctor_id", a.DoctorID).
				Str("date", a.Date.String()).
				Str("time", a.Time).
				Str("reason", string(ce.Reason)).
				Int("count", ce.Count).
				Int("limit", ce.Limit).
				Msg("booking rejected")
			return nil, err
		}
		s.metrics.Booking(metrics.OutcomeError)
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.metrics.Booking(metrics.OutcomeAdmitted)
	s.log.Debug().
		Str("appointment_id", a.ID).
		Str("doctor_id", a.DoctorID).
		Str("patient_id", a.PatientID).
		Msg("appointment booked")
	return a, nil
}

// Cancel moves a booked appointment to canceled. Either participant may cancel.
func (s *Service) Cancel(ctx context.Context, caller Caller, appointmentID string) (*model.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, appointmentID)
	if errors.Is(err, model.ErrNoRecord) {
		return nil, notFound("appointment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if caller.ID != a.PatientID && caller.ID != a.DoctorID {
		return nil, forbidden("not a participant of this appointment")
	}
	return s.transition(ctx, a, model.StatusCanceled)
}

// Complete moves a booked appointment to completed. Only the appointment's
// doctor may complete it; a missing appointment is reported as Forbidden too.
func (s *Service) Complete(ctx context.Context, caller Caller, appointmentID string) (*model.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil && !errors.Is(err, model.ErrNoRecord) {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a == nil || a.DoctorID != caller.ID {
		return nil, forbidden("only the appointment's doctor can complete it")
	}
	return s.transition(ctx, a, model.StatusCompleted)
}

func (s *Service) transition(ctx context.Context, a *model.Appointment, to model.Status) (*model.Appointment, error) {
	if !canTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, a.Status)
	}
	err := s.store.UpdateAppointmentStatus(ctx, a.ID, a.Status, to)
	if errors.Is(err, model.ErrNoRecord) {
		// lost a race with another transition
		return nil, fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	out := *a
	out.Status = to
	s.metrics.Transition(string(to))
	s.log.Debug().Str("appointment_id", a.ID).Str("to", string(to)).Msg("appointment transitioned")
	return &out, nil
}

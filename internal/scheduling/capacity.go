package scheduling

import (
	"context"
	"fmt"

	"healthcare-booking-api/internal/model"
)

// SlotCap is the fixed number of booked appointments allowed to share one
// (doctor, date, time) triple, independent of the daily cap.
const SlotCap = 3

// Counter counts appointments matching a filter.
type Counter interface {
	CountAppointments(ctx context.Context, f model.AppointmentFilter) (int, error)
}

// Checker decides whether a new booking may be admitted.
type Checker struct{}

// CanBook returns nil to admit or a *CapacityError to reject. The daily cap
// is checked before the slot cap. It has no side effects.
func (Checker) CanBook(ctx context.Context, counts Counter, doctor *model.User, date model.Date, slot string) error {
	booked := model.StatusBooked

	if limit := doctor.AvailableSlotsPerDay; limit != nil {
		daily, err := counts.CountAppointments(ctx, model.AppointmentFilter{
			DoctorID: &doctor.ID,
			Date:     &date,
			Status:   &booked,
		})
		if err != nil {
			return fmt.Errorf("count daily bookings: %w", err)
		}
		if daily >= *limit {
			return &CapacityError{Reason: ReasonDailyCap, Limit: *limit, Count: daily}
		}
	}

	inSlot, err := counts.CountAppointments(ctx, model.AppointmentFilter{
		DoctorID: &doctor.ID,
		Date:     &date,
		Time:     &slot,
		Status:   &booked,
	})
	if err != nil {
		return fmt.Errorf("count slot bookings: %w", err)
	}
	if inSlot >= SlotCap {
		return &CapacityError{Reason: ReasonSlotCap, Limit: SlotCap, Count: inSlot}
	}
	return nil
}

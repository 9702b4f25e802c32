package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
)

type CapacityReason string

const (
	ReasonDailyCap CapacityReason = "daily_cap"
	ReasonSlotCap  CapacityReason = "slot_cap"
)

// CapacityError is returned when a booking would exceed the doctor's daily
// cap or the per-slot cap. It matches ErrCapacityExceeded with errors.Is.
type CapacityError struct {
	Reason CapacityReason
	Limit  int
	Count  int
}

func (e *CapacityError) Error() string {
	switch e.Reason {
	case ReasonDailyCap:
		return "fully booked for the day"
	case ReasonSlotCap:
		return "this time slot is full, please select another time"
	}
	return ErrCapacityExceeded.Error()
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

// CapacityReasonOf extracts the reject reason, or "" if err is not a capacity error.
func CapacityReasonOf(err error) CapacityReason {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

func forbidden(msg string) error    { return fmt.Errorf("%w: %s", ErrForbidden, msg) }
func notFound(msg string) error     { return fmt.Errorf("%w: %s", ErrNotFound, msg) }
func invalidInput(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidInput, msg) }

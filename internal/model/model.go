package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoRecord is returned by record stores when a lookup matches nothing.
var ErrNoRecord = errors.New("record not found")

// ErrDuplicate is returned when a unique field (user email) already exists.
var ErrDuplicate = errors.New("duplicate record")

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleDoctor, RolePatient:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusBooked, StatusCanceled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	PhoneNumber  string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PinCode      string

	// patient history
	Diseases       []string
	OtherDiseases  string
	SurgeryHistory string

	// doctor profile
	Specialization       string
	LicenseNumber        string
	ExperienceYears      *int
	HospitalAffiliated   string
	LanguagesSpoken      string
	AvailableSlotsPerDay *int // nil = no daily cap

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsDoctor() bool { return u != nil && u.Role == RoleDoctor }

type Appointment struct {
	ID        string
	DoctorID  string
	PatientID string
	Date      Date
	Time      string
	Status    Status
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentFilter is a conjunction of optional predicates. Nil fields are
// not constrained.
type AppointmentFilter struct {
	DoctorID   *string
	PatientID  *string
	Date       *Date // date = x
	DateBefore *Date // date < x
	DateFrom   *Date // date >= x
	Time       *string
	Status     *Status
}

// Availability is the advisory schedule a doctor publishes. It is never
// consulted when admitting a booking.
type Availability struct {
	TimeRanges       []map[string]any `json:"time_ranges"`
	SlotsPerDay      int              `json:"slots_per_day"`
	UnavailableDates []Date           `json:"unavailable_dates"`
}

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// Ptr is a small helper for building filters.
func Ptr[T any](v T) *T { return &v }

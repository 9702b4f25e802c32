package handler

import (
	"time"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

type userView struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	FullName             string     `json:"full_name"`
	Role                 model.Role `json:"role"`
	PhoneNumber          string     `json:"phone_number"`
	AddressLine1         string     `json:"address_line1"`
	AddressLine2         string     `json:"address_line2"`
	City                 string     `json:"city"`
	State                string     `json:"state"`
	PinCode              string     `json:"pin_code"`
	Diseases             []string   `json:"diseases"`
	OtherDiseases        string     `json:"other_diseases"`
	SurgeryHistory       string     `json:"surgery_history"`
	Specialization       string     `json:"specialization"`
	LicenseNumber        string     `json:"license_number"`
	ExperienceYears      *int       `json:"experience_years"`
	HospitalAffiliated   string     `json:"hospital_affiliated"`
	LanguagesSpoken      string     `json:"languages_spoken"`
	AvailableSlotsPerDay *int       `json:"available_slots_per_day"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toUserView(u *model.User) userView {
	diseases := u.Diseases
	if diseases == nil {
		diseases = []string{}
	}
	return userView{
		ID:                   u.ID,
		Email:                u.Email,
		FullName:             u.FullName,
		Role:                 u.Role,
		PhoneNumber:          u.PhoneNumber,
		AddressLine1:         u.AddressLine1,
		AddressLine2:         u.AddressLine2,
		City:                 u.City,
		State:                u.State,
		PinCode:              u.PinCode,
		Diseases:             diseases,
		OtherDiseases:        u.OtherDiseases,
		SurgeryHistory:       u.SurgeryHistory,
		Specialization:       u.Specialization,
		LicenseNumber:        u.LicenseNumber,
		ExperienceYears:      u.ExperienceYears,
		HospitalAffiliated:   u.HospitalAffiliated,
		LanguagesSpoken:      u.LanguagesSpoken,
		AvailableSlotsPerDay: u.AvailableSlotsPerDay,
		CreatedAt:            u.CreatedAt,
	}
}

// doctorView is the public card shown in the doctor list.
type doctorView struct {
	ID                   string `json:"id"`
	FullName             string `json:"full_name"`
	Specialization       string `json:"specialization"`
	ExperienceYears      *int   `json:"experience_years"`
	HospitalAffiliated   string `json:"hospital_affiliated"`
	LanguagesSpoken      string `json:"languages_spoken"`
	AvailableSlotsPerDay *int   `json:"available_slots_per_day"`
}

func toDoctorView(u *model.User) doctorView {
	return doctorView{
		ID:                   u.ID,
		FullName:             u.FullName,
		Specialization:       u.Specialization,
		ExperienceYears:      u.ExperienceYears,
		HospitalAffiliated:   u.HospitalAffiliated,
		LanguagesSpoken:      u.LanguagesSpoken,
		AvailableSlotsPerDay: u.AvailableSlotsPerDay,
	}
}

type doctorDetailView struct {
	doctorView
	TimeRanges       []map[string]any `json:"time_ranges"`
	SlotsPerDay      int              `json:"slots_per_day"`
	UnavailableDates []model.Date     `json:"unavailable_dates"`
}

type appointmentView struct {
	ID        string       `json:"id"`
	DoctorID  string       `json:"doctor_id"`
	PatientID string       `json:"patient_id"`
	Date      model.Date   `json:"date"`
	Time      string       `json:"time"`
	Status    model.Status `json:"status"`
	Reason    string       `json:"reason"`
}

func toAppointmentView(a *model.Appointment) appointmentView {
	return appointmentView{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Date:      a.Date,
		Time:      a.Time,
		Status:    a.Status,
		Reason:    a.Reason,
	}
}

func toAppointmentViews(in []model.Appointment) []appointmentView {
	out := make([]appointmentView, len(in))
	for i := range in {
		out[i] = toAppointmentView(&in[i])
	}
	return out
}

type upcomingView struct {
	ID         string     `json:"id"`
	Date       model.Date `json:"date"`
	Time       string     `json:"time"`
	Reason     string     `json:"reason"`
	DoctorName string     `json:"doctor_name"`
}

func toUpcomingViews(in []scheduling.UpcomingAppointment) []upcomingView {
	out := make([]upcomingView, len(in))
	for i, a := range in {
		out[i] = upcomingView{ID: a.ID, Date: a.Date, Time: a.Time, Reason: a.Reason, DoctorName: a.DoctorName}
	}
	return out
}

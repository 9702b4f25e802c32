package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

func (h *Handler) ListDoctors(c echo.Context) error {
	docs, err := h.accounts.ListDoctors(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]doctorView, len(docs))
	for i := range docs {
		out[i] = toDoctorView(&docs[i])
	}
	return c.JSON(http.StatusOK, out)
}

// GetDoctor returns the public profile merged with the doctor's availability.
func (h *Handler) GetDoctor(c echo.Context) error {
	ctx := c.Request().Context()
	doc, err := h.accounts.GetUser(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNoRecord) || (err == nil && !doc.IsDoctor()) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return err
	}

	a, err := h.svc.AvailabilityOf(ctx, doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctorDetailView{
		doctorView:       toDoctorView(doc),
		TimeRanges:       a.TimeRanges,
		SlotsPerDay:      a.SlotsPerDay,
		UnavailableDates: a.UnavailableDates,
	})
}

// profileUpdate mirrors profileFields with every field optional so a client
// can send only what changes.
type profileUpdate struct {
	Role                 *string       `json:"role"`
	FullName             *string       `json:"full_name"`
	PhoneNumber          *string       `json:"phone_number"`
	AddressLine1         *string       `json:"address_line1"`
	AddressLine2         *string       `json:"address_line2"`
	City                 *string       `json:"city"`
	State                *string       `json:"state"`
	PinCode              *string       `json:"pin_code"`
	Specialization       *string       `json:"specialization"`
	LicenseNumber        *string       `json:"license_number"`
	ExperienceYears      *int          `json:"experience_years"`
	HospitalAffiliated   *string       `json:"hospital_affiliated"`
	LanguagesSpoken      *string       `json:"languages_spoken"`
	AvailableSlotsPerDay nullable[int] `json:"available_slots_per_day"`
	Diseases             *[]string     `json:"diseases"`
}

// nullable records whether its key was present in the body, so an explicit
// null can clear a field while an omitted key leaves it alone.
type nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (p profileUpdate) apply(u *model.User) {
	set(&u.FullName, p.FullName)
	set(&u.PhoneNumber, p.PhoneNumber)
	set(&u.AddressLine1, p.AddressLine1)
	set(&u.AddressLine2, p.AddressLine2)
	set(&u.City, p.City)
	set(&u.State, p.State)
	set(&u.PinCode, p.PinCode)
	set(&u.Specialization, p.Specialization)
	set(&u.LicenseNumber, p.LicenseNumber)
	set(&u.HospitalAffiliated, p.HospitalAffiliated)
	set(&u.LanguagesSpoken, p.LanguagesSpoken)
	set(&u.Diseases, p.Diseases)
	if p.ExperienceYears != nil {
		u.ExperienceYears = model.Ptr(*p.ExperienceYears)
	}
	// null lifts the daily cap
	if p.AvailableSlotsPerDay.Set {
		u.AvailableSlotsPerDay = p.AvailableSlotsPerDay.Value
	}
}

func (h *Handler) UpdateDoctorProfile(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	if cl.Role != model.RoleDoctor {
		return scheduling.ErrForbidden
	}

	var req profileUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	switch {
	case req.Role != nil && *req.Role != string(cl.Role):
		return echo.NewHTTPError(http.StatusBadRequest, "role cannot be changed")
	case !validSlots(req.AvailableSlotsPerDay.Value):
		return echo.NewHTTPError(http.StatusBadRequest, "available_slots_per_day must be at least 1")
	case req.FullName != nil && strings.TrimSpace(*req.FullName) == "":
		return echo.NewHTTPError(http.StatusBadRequest, "full_name must not be empty")
	}

	ctx := c.Request().Context()
	u, err := h.accounts.GetUser(ctx, cl.ID)
	if errors.Is(err, model.ErrNoRecord) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return err
	}
	req.apply(u)
	if err := h.accounts.UpdateProfile(ctx, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserView(u))
}

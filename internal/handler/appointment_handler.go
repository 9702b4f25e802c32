package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

type bookRequest struct {
	Date   model.Date `json:"date"`
	Time   string     `json:"time"`
	Reason string     `json:"reason"`
}

func (h *Handler) Book(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	a, err := h.svc.Book(c.Request().Context(), cl, scheduling.BookRequest{
		DoctorID: c.Param("id"),
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAppointmentView(a))
}

func (h *Handler) Cancel(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Cancel(c.Request().Context(), cl, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentView(a))
}

func (h *Handler) Complete(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Complete(c.Request().Context(), cl, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentView(a))
}

type listFunc func(*scheduling.Service, echo.Context, scheduling.Caller) ([]model.Appointment, error)

func (h *Handler) list(c echo.Context, fn listFunc) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	appts, err := fn(h.svc, c, cl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentViews(appts))
}

func (h *Handler) DoctorBooked(c echo.Context) error {
	return h.list(c, func(s *scheduling.Service, c echo.Context, cl scheduling.Caller) ([]model.Appointment, error) {
		return s.ListDoctorBooked(c.Request().Context(), cl)
	})
}

func (h *Handler) DoctorToday(c echo.Context) error {
	return h.list(c, func(s *scheduling.Service, c echo.Context, cl scheduling.Caller) ([]model.Appointment, error) {
		return s.ListDoctorToday(c.Request().Context(), cl)
	})
}

func (h *Handler) DoctorPast(c echo.Context) error {
	return h.list(c, func(s *scheduling.Service, c echo.Context, cl scheduling.Caller) ([]model.Appointment, error) {
		return s.ListDoctorPast(c.Request().Context(), cl)
	})
}

func (h *Handler) PatientPast(c echo.Context) error {
	return h.list(c, func(s *scheduling.Service, c echo.Context, cl scheduling.Caller) ([]model.Appointment, error) {
		return s.ListPatientPast(c.Request().Context(), cl)
	})
}

func (h *Handler) PatientUpcoming(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	up, err := h.svc.ListPatientUpcoming(c.Request().Context(), cl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUpcomingViews(up))
}

func (h *Handler) SetAvailability(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	var req model.Availability
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid availability")
	}
	a, err := h.svc.SetAvailability(c.Request().Context(), cl, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAvailability(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAvailability(c.Request().Context(), cl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

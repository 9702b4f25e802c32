package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"healthcare-booking-api/internal/middleware"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

// Accounts is the user and refresh-token side of the record store.
type Accounts interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListDoctors(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error

	CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	accounts Accounts
	svc      *scheduling.Service
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

func New(accounts Accounts, svc *scheduling.Service, cfg Config, log zerolog.Logger) *Handler {
	return &Handler{accounts: accounts, svc: svc, cfg: cfg, log: log, now: time.Now}
}

// Register mounts every route on e. limit guards the credential endpoints.
func (h *Handler) Register(e *echo.Echo, limit echo.MiddlewareFunc) {
	authed := middleware.RequireAuth(h.cfg.Secret)

	e.POST("/signup", h.Signup, limit)
	e.POST("/signin", h.Signin, limit)
	e.POST("/token/refresh", h.Refresh, limit)
	e.POST("/signout", h.Signout, authed)
	e.GET("/me", h.Me, authed)

	e.GET("/doctors", h.ListDoctors)
	e.GET("/doctors/:id", h.GetDoctor)
	e.PUT("/doctor/profile", h.UpdateDoctorProfile, authed)

	e.POST("/doctors/:id/appointments", h.Book, authed)
	e.DELETE("/appointments/:id", h.Cancel, authed)
	e.PUT("/appointments/:id/complete", h.Complete, authed)

	e.GET("/doctor/appointments", h.DoctorBooked, authed)
	e.GET("/doctor/appointments/today", h.DoctorToday, authed)
	e.GET("/doctor/appointments/past", h.DoctorPast, authed)
	e.GET("/appointments/upcoming", h.PatientUpcoming, authed)
	e.GET("/appointments/past", h.PatientPast, authed)

	e.PUT("/doctor/availability", h.SetAvailability, authed)
	e.GET("/doctor/availability", h.GetAvailability, authed)
}

func caller(c echo.Context) (scheduling.Caller, error) {
	cl, ok := middleware.CallerFrom(c.Request().Context())
	if !ok {
		return scheduling.Caller{}, scheduling.ErrUnauthenticated
	}
	return cl, nil
}

type message struct {
	Message string `json:"message"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Reason string `json:"reason,omitempty"`
}

// StatusOf maps a core error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, scheduling.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrCapacityExceeded),
		errors.Is(err, scheduling.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders both echo errors and core errors as
// {"detail": ..., "reason": ...}. Unmapped errors are logged and hidden.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := StatusOf(err)
		body := errorBody{Detail: err.Error(), Reason: string(scheduling.CapacityReasonOf(err))}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			body = errorBody{Detail: http.StatusText(code)}
			if msg, ok := he.Message.(string); ok {
				body.Detail = msg
			}
		} else if code == http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
			body = errorBody{Detail: "internal server error"}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			log.Error().Err(werr).Msg("write error response")
		}
	}
}

// Health reports 200 while ping succeeds.
func Health(ping func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			if err := ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

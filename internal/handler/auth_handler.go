package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"healthcare-booking-api/internal/auth"
	"healthcare-booking-api/internal/model"
)

type profileFields struct {
	FullName             string   `json:"full_name"`
	PhoneNumber          string   `json:"phone_number"`
	AddressLine1         string   `json:"address_line1"`
	AddressLine2         string   `json:"address_line2"`
	City                 string   `json:"city"`
	State                string   `json:"state"`
	PinCode              string   `json:"pin_code"`
	Diseases             []string `json:"diseases"`
	OtherDiseases        string   `json:"other_diseases"`
	SurgeryHistory       string   `json:"surgery_history"`
	Specialization       string   `json:"specialization"`
	LicenseNumber        string   `json:"license_number"`
	ExperienceYears      *int     `json:"experience_years"`
	HospitalAffiliated   string   `json:"hospital_affiliated"`
	LanguagesSpoken      string   `json:"languages_spoken"`
	AvailableSlotsPerDay *int     `json:"available_slots_per_day"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	profileFields
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func validSlots(n *int) bool { return n == nil || *n >= 1 }

func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	role, err := model.ParseRole(req.Role)
	switch {
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return echo.NewHTTPError(http.StatusBadRequest, "valid email required")
	case len(req.Password) < auth.MinPasswordLen:
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	case req.FullName == "":
		return echo.NewHTTPError(http.StatusBadRequest, "full_name required")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "role must be doctor or patient")
	case !validSlots(req.AvailableSlotsPerDay):
		return echo.NewHTTPError(http.StatusBadRequest, "available_slots_per_day must be at least 1")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	applyProfile(u, req.profileFields)

	if err := h.accounts.CreateUser(c.Request().Context(), u); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "email already exists")
		}
		return err
	}
	h.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return c.JSON(http.StatusCreated, map[string]string{"message": "User created", "id": u.ID})
}

func applyProfile(u *model.User, p profileFields) {
	u.FullName = p.FullName
	u.PhoneNumber = p.PhoneNumber
	u.AddressLine1 = p.AddressLine1
	u.AddressLine2 = p.AddressLine2
	u.City = p.City
	u.State = p.State
	u.PinCode = p.PinCode
	u.Diseases = p.Diseases
	u.OtherDiseases = p.OtherDiseases
	u.SurgeryHistory = p.SurgeryHistory
	u.Specialization = p.Specialization
	u.LicenseNumber = p.LicenseNumber
	u.ExperienceYears = p.ExperienceYears
	u.HospitalAffiliated = p.HospitalAffiliated
	u.LanguagesSpoken = p.LanguagesSpoken
	u.AvailableSlotsPerDay = p.AvailableSlotsPerDay
}

func (h *Handler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	u, err := h.accounts.UserByEmail(c.Request().Context(), normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, model.ErrNoRecord) {
		return err
	}
	// same answer for unknown email and wrong password
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	return h.issueTokens(c, u, "")
}

// issueTokens writes a fresh access/refresh pair. When oldID is set the
// refresh token it names is rotated out in the same step.
func (h *Handler) issueTokens(c echo.Context, u *model.User, oldID string) error {
	ctx := c.Request().Context()
	access, err := auth.MakeToken(u.ID, u.Role, h.cfg.Secret, h.cfg.AccessTTL)
	if err != nil {
		return err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return err
	}

	id := uuid.New().String()
	exp := h.now().Add(h.cfg.RefreshTTL)
	if oldID == "" {
		err = h.accounts.CreateRefreshToken(ctx, id, u.ID, hash, exp)
	} else {
		err = h.accounts.RotateRefreshToken(ctx, oldID, id, u.ID, hash, exp)
	}
	if errors.Is(err, model.ErrNoRecord) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    int(h.cfg.AccessTTL.Seconds()),
		RefreshToken: raw,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token required")
	}
	ctx := c.Request().Context()

	rt, err := h.accounts.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if errors.Is(err, model.ErrNoRecord) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return err
	}
	if rt.Revoked {
		// a rotated token came back: treat the whole family as stolen
		h.log.Warn().Str("user_id", rt.UserID).Msg("refresh token reuse")
		if err := h.accounts.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			return err
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if !h.now().Before(rt.ExpiresAt) {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	}

	u, err := h.accounts.GetUser(ctx, rt.UserID)
	if errors.Is(err, model.ErrNoRecord) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return err
	}
	return h.issueTokens(c, u, rt.ID)
}

func (h *Handler) Signout(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.accounts.RevokeAllRefreshTokens(c.Request().Context(), cl.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{"Signed out"})
}

func (h *Handler) Me(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	u, err := h.accounts.GetUser(c.Request().Context(), cl.ID)
	if errors.Is(err, model.ErrNoRecord) {
		return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserView(u))
}

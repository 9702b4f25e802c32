package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

// Memory is a map-backed record store with the same behaviour as Store.
// Contents are lost on restart.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*model.User
	appointments map[string]*model.Appointment
	tokens       map[string]*model.RefreshToken
	doctorLocks  map[string]*sync.Mutex
	now          func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*model.User),
		appointments: make(map[string]*model.Appointment),
		tokens:       make(map[string]*model.RefreshToken),
		doctorLocks:  make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Diseases = append([]string(nil), u.Diseases...)
	if u.ExperienceYears != nil {
		c.ExperienceYears = model.Ptr(*u.ExperienceYears)
	}
	if u.AvailableSlotsPerDay != nil {
		c.AvailableSlotsPerDay = model.Ptr(*u.AvailableSlotsPerDay)
	}
	return &c
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return model.ErrDuplicate
		}
	}
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, model.ErrNoRecord
}

func (m *Memory) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return cloneUser(u), nil
}

func (m *Memory) ListDoctors(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleDoctor {
			out = append(out, *cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return model.ErrNoRecord
	}
	next := cloneUser(u)
	next.Email, next.PasswordHash, next.Role = cur.Email, cur.PasswordHash, cur.Role
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = m.now()
	u.UpdatedAt = next.UpdatedAt
	m.users[u.ID] = next
	return nil
}

func matches(a *model.Appointment, f model.AppointmentFilter) bool {
	switch {
	case f.DoctorID != nil && a.DoctorID != *f.DoctorID,
		f.PatientID != nil && a.PatientID != *f.PatientID,
		f.Date != nil && a.Date != *f.Date,
		f.DateBefore != nil && !a.Date.Before(*f.DateBefore),
		f.DateFrom != nil && a.Date.Before(*f.DateFrom),
		f.Time != nil && a.Time != *f.Time,
		f.Status != nil && a.Status != *f.Status:
		return false
	}
	return true
}

func (m *Memory) ListAppointments(_ context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range m.appointments {
		if matches(a, f) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *Memory) CountAppointments(_ context.Context, f model.AppointmentFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.appointments {
		if matches(a, f) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) InsertAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	a.CreatedAt, a.UpdatedAt = now, now
	c := *a
	m.appointments[a.ID] = &c
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	c := *a
	return &c, nil
}

func (m *Memory) UpdateAppointmentStatus(_ context.Context, id string, from, to model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return model.ErrNoRecord
	}
	a.Status = to
	a.UpdatedAt = m.now()
	return nil
}

// doctorLock returns the mutex for a stored user. Unknown ids get no entry,
// so the lock table is bounded by the user table.
func (m *Memory) doctorLock(id string) (*sync.Mutex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return nil, model.ErrNoRecord
	}
	l, ok := m.doctorLocks[id]
	if !ok {
		l = &sync.Mutex{}
		m.doctorLocks[id] = l
	}
	return l, nil
}

// WithDoctorLock serialises fn per doctor. fn writes straight to the
// store; there is no rollback.
func (m *Memory) WithDoctorLock(ctx context.Context, doctorID string, fn func(scheduling.Tx, *model.User) error) error {
	l, err := m.doctorLock(doctorID)
	if err != nil {
		return err
	}
	l.Lock()
	defer l.Unlock()
	doctor, err := m.GetUser(ctx, doctorID)
	if err != nil {
		return err
	}
	return fn(m, doctor)
}

func (m *Memory) CreateRefreshToken(_ context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = &model.RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: m.now()}
	return nil
}

func (m *Memory) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.TokenHash == tokenHash {
			c := *rt
			return &c, nil
		}
	}
	return nil, model.ErrNoRecord
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tokens[oldID]
	if !ok || old.Revoked {
		return model.ErrNoRecord
	}
	old.Revoked = true
	old.ReplacedBy = model.Ptr(newID)
	m.tokens[newID] = &model.RefreshToken{ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: m.now()}
	return nil
}

func (m *Memory) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

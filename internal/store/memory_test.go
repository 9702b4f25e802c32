package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestAppointmentWhere(t *testing.T) {
	where, args := appointmentWhere(model.AppointmentFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	d := date(t, "2024-01-10")
	where, args = appointmentWhere(model.AppointmentFilter{
		DoctorID: model.Ptr("doc"),
		Date:     &d,
		Time:     model.Ptr("09:00"),
		Status:   model.Ptr(model.StatusBooked),
	})
	assert.Equal(t, " WHERE doctor_id = $1 AND date = $2 AND time = $3 AND status = $4", where)
	assert.Equal(t, []any{"doc", d.Time(), "09:00", "booked"}, args)

	where, args = appointmentWhere(model.AppointmentFilter{
		PatientID:  model.Ptr("pat"),
		DateBefore: &d,
	})
	assert.Equal(t, " WHERE patient_id = $1 AND date < $2", where)
	assert.Len(t, args, 2)

	where, _ = appointmentWhere(model.AppointmentFilter{DateFrom: &d})
	assert.Equal(t, " WHERE date >= $1", where)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	doc := &model.User{ID: "d1", Email: "doc@x.com", FullName: "Dr B", Role: model.RoleDoctor, AvailableSlotsPerDay: model.Ptr(4)}
	require.NoError(t, m.CreateUser(ctx, doc))
	assert.False(t, doc.CreatedAt.IsZero())

	dup := &model.User{ID: "d2", Email: "doc@x.com", Role: model.RolePatient}
	assert.ErrorIs(t, m.CreateUser(ctx, dup), model.ErrDuplicate)

	require.NoError(t, m.CreateUser(ctx, &model.User{ID: "d3", Email: "a@x.com", FullName: "Dr A", Role: model.RoleDoctor}))
	require.NoError(t, m.CreateUser(ctx, &model.User{ID: "p1", Email: "p@x.com", FullName: "Pat", Role: model.RolePatient}))

	docs, err := m.ListDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Dr A", docs[0].FullName)
	assert.Equal(t, "Dr B", docs[1].FullName)

	got, err := m.UserByEmail(ctx, "doc@x.com")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	_, err = m.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNoRecord)

	// callers cannot mutate stored state through returned pointers
	got.AvailableSlotsPerDay = model.Ptr(99)
	again, _ := m.GetUser(ctx, "d1")
	assert.Equal(t, 4, *again.AvailableSlotsPerDay)
}

func TestMemoryUpdateProfileKeepsRole(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateUser(ctx, &model.User{ID: "d1", Email: "d@x.com", PasswordHash: "h", Role: model.RoleDoctor}))

	err := m.UpdateProfile(ctx, &model.User{ID: "d1", FullName: "New", Role: model.RolePatient, Email: "other@x.com"})
	require.NoError(t, err)

	u, _ := m.GetUser(ctx, "d1")
	assert.Equal(t, "New", u.FullName)
	assert.Equal(t, model.RoleDoctor, u.Role)
	assert.Equal(t, "d@x.com", u.Email)
	assert.Equal(t, "h", u.PasswordHash)

	assert.ErrorIs(t, m.UpdateProfile(ctx, &model.User{ID: "missing"}), model.ErrNoRecord)
}

func TestMemoryAppointmentFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	d9, d10, d11 := date(t, "2024-01-09"), date(t, "2024-01-10"), date(t, "2024-01-11")
	seed := []model.Appointment{
		{ID: "a", DoctorID: "d", PatientID: "p", Date: d10, Time: "10:00", Status: model.StatusBooked},
		{ID: "b", DoctorID: "d", PatientID: "p", Date: d10, Time: "09:00", Status: model.StatusBooked},
		{ID: "c", DoctorID: "d", PatientID: "q", Date: d9, Time: "09:00", Status: model.StatusCanceled},
		{ID: "e", DoctorID: "x", PatientID: "p", Date: d11, Time: "09:00", Status: model.StatusBooked},
	}
	for i := range seed {
		require.NoError(t, m.InsertAppointment(ctx, &seed[i]))
	}

	all, err := m.ListAppointments(ctx, model.AppointmentFilter{DoctorID: model.Ptr("d")})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	n, err := m.CountAppointments(ctx, model.AppointmentFilter{
		DoctorID: model.Ptr("d"), Date: &d10, Status: model.Ptr(model.StatusBooked),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	before, _ := m.ListAppointments(ctx, model.AppointmentFilter{DateBefore: &d10})
	require.Len(t, before, 1)
	assert.Equal(t, "c", before[0].ID)

	from, _ := m.ListAppointments(ctx, model.AppointmentFilter{PatientID: model.Ptr("p"), DateFrom: &d10})
	assert.Len(t, from, 3)

	none, _ := m.ListAppointments(ctx, model.AppointmentFilter{PatientID: model.Ptr("zzz")})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryUpdateStatusIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := &model.Appointment{ID: "a", DoctorID: "d", PatientID: "p", Date: date(t, "2024-01-10"), Time: "09:00", Status: model.StatusBooked}
	require.NoError(t, m.InsertAppointment(ctx, a))

	require.NoError(t, m.UpdateAppointmentStatus(ctx, "a", model.StatusBooked, model.StatusCanceled))
	assert.ErrorIs(t, m.UpdateAppointmentStatus(ctx, "a", model.StatusBooked, model.StatusCompleted), model.ErrNoRecord)
	assert.ErrorIs(t, m.UpdateAppointmentStatus(ctx, "zz", model.StatusBooked, model.StatusCanceled), model.ErrNoRecord)

	got, _ := m.GetAppointment(ctx, "a")
	assert.Equal(t, model.StatusCanceled, got.Status)
}

func TestMemoryRefreshTokens(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, m.CreateRefreshToken(ctx, "t1", "u1", "h1", exp))
	rt, err := m.GetRefreshTokenByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "u1", rt.UserID)

	require.NoError(t, m.RotateRefreshToken(ctx, "t1", "t2", "u1", "h2", exp))
	old, _ := m.GetRefreshTokenByHash(ctx, "h1")
	assert.True(t, old.Revoked)
	require.NotNil(t, old.ReplacedBy)
	assert.Equal(t, "t2", *old.ReplacedBy)

	// a revoked token cannot be rotated twice
	assert.ErrorIs(t, m.RotateRefreshToken(ctx, "t1", "t3", "u1", "h3", exp), model.ErrNoRecord)

	require.NoError(t, m.RevokeAllRefreshTokens(ctx, "u1"))
	cur, _ := m.GetRefreshTokenByHash(ctx, "h2")
	assert.True(t, cur.Revoked)

	_, err = m.GetRefreshTokenByHash(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNoRecord)
}

func TestMemoryDoctorLockOnlyForKnownUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateUser(ctx, &model.User{ID: "doc", Email: "d@x.com", Role: model.RoleDoctor}))

	called := false
	for i := 0; i < 100; i++ {
		err := m.WithDoctorLock(ctx, fmt.Sprintf("ghost-%d", i), func(scheduling.Tx, *model.User) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, model.ErrNoRecord)
	}
	assert.False(t, called)
	assert.Empty(t, m.doctorLocks)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.WithDoctorLock(ctx, "doc", func(_ scheduling.Tx, d *model.User) error {
			assert.Equal(t, "doc", d.ID)
			return nil
		}))
	}
	assert.Len(t, m.doctorLocks, 1)
}

package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
	"healthcare-booking-api/internal/store"
)

func setupPostgres(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := store.NewPool(ctx, dbURL, 10, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	st := store.New(pool)
	_, err = st.Migrate(ctx)
	require.NoError(t, err)
	return st
}

func createUser(t *testing.T, st *store.Store, role model.Role, slots *int) *model.User {
	t.Helper()
	id := uuid.New().String()
	u := &model.User{
		ID:                   id,
		Email:                fmt.Sprintf("test-%s@test.com", id[:8]),
		PasswordHash:         "x",
		FullName:             "User " + id[:8],
		Role:                 role,
		AvailableSlotsPerDay: slots,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func TestPostgresUsers(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()

	u := createUser(t, st, model.RoleDoctor, model.Ptr(5))
	assert.False(t, u.CreatedAt.IsZero())

	err := st.CreateUser(ctx, &model.User{ID: uuid.New().String(), Email: u.Email, Role: model.RolePatient})
	assert.ErrorIs(t, err, model.ErrDuplicate)

	got, err := st.UserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.AvailableSlotsPerDay)
	assert.Equal(t, 5, *got.AvailableSlotsPerDay)
	assert.Equal(t, []string{}, got.Diseases)

	got.FullName = "Renamed"
	got.Role = model.RolePatient
	require.NoError(t, st.UpdateProfile(ctx, got))
	again, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.FullName)
	assert.Equal(t, model.RoleDoctor, again.Role)

	_, err = st.GetUser(ctx, uuid.New().String())
	assert.ErrorIs(t, err, model.ErrNoRecord)
}

func TestPostgresAppointmentStatusCAS(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()
	doc := createUser(t, st, model.RoleDoctor, nil)
	pat := createUser(t, st, model.RolePatient, nil)

	d, _ := model.ParseDate("2030-05-01")
	a := &model.Appointment{
		ID: uuid.New().String(), DoctorID: doc.ID, PatientID: pat.ID,
		Date: d, Time: "09:00", Status: model.StatusBooked,
	}
	err := st.WithDoctorLock(ctx, doc.ID, func(tx scheduling.Tx, _ *model.User) error {
		return tx.InsertAppointment(ctx, a)
	})
	require.NoError(t, err)

	got, err := st.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, d, got.Date)

	require.NoError(t, st.UpdateAppointmentStatus(ctx, a.ID, model.StatusBooked, model.StatusCompleted))
	err = st.UpdateAppointmentStatus(ctx, a.ID, model.StatusBooked, model.StatusCanceled)
	assert.ErrorIs(t, err, model.ErrNoRecord)

	n, err := st.CountAppointments(ctx, model.AppointmentFilter{DoctorID: &doc.ID, Status: model.Ptr(model.StatusBooked)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPostgresRefreshRotation(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()
	u := createUser(t, st, model.RolePatient, nil)
	exp := time.Now().Add(time.Hour)

	oldID, newID := uuid.New().String(), uuid.New().String()
	oldHash, newHash := uuid.New().String(), uuid.New().String()
	require.NoError(t, st.CreateRefreshToken(ctx, oldID, u.ID, oldHash, exp))
	require.NoError(t, st.RotateRefreshToken(ctx, oldID, newID, u.ID, newHash, exp))

	err := st.RotateRefreshToken(ctx, oldID, uuid.New().String(), u.ID, uuid.New().String(), exp)
	assert.ErrorIs(t, err, model.ErrNoRecord)

	require.NoError(t, st.RevokeAllRefreshTokens(ctx, u.ID))
	rt, err := st.GetRefreshTokenByHash(ctx, newHash)
	require.NoError(t, err)
	assert.True(t, rt.Revoked)
}

// Concurrent bookings for the same slot must never exceed the slot cap.
func TestPostgresConcurrentBookingsRespectSlotCap(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()
	doc := createUser(t, st, model.RoleDoctor, nil)
	svc := scheduling.New(st, scheduling.NewMemoryDirectory())
	d, _ := model.ParseDate("2030-06-01")

	const attempts = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		full     int
	)
	for i := 0; i < attempts; i++ {
		pat := createUser(t, st, model.RolePatient, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, scheduling.Caller{ID: pat.ID, Role: model.RolePatient},
				scheduling.BookRequest{DoctorID: doc.ID, Date: d, Time: "10:00"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, scheduling.ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, scheduling.SlotCap, admitted)
	assert.Equal(t, attempts-scheduling.SlotCap, full)
}

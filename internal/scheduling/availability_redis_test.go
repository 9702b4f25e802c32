package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-api/internal/model"
)

func TestRedisDirectoryPut(t *testing.T) {
	db, mock := redismock.NewClientMock()
	dir := NewRedisDirectory(db)

	a := &model.Availability{
		TimeRanges:       []map[string]any{{"start": "09:00", "end": "12:00"}},
		SlotsPerDay:      5,
		UnavailableDates: []model.Date{{Year: 2024, Month: 3, Day: 1}},
	}
	b, err := json.Marshal(a)
	require.NoError(t, err)

	mock.ExpectSet("availability:doc-1", b, 0).SetVal("OK")
	require.NoError(t, dir.Put(context.Background(), "doc-1", a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisDirectoryGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	dir := NewRedisDirectory(db)

	mock.ExpectGet("availability:doc-1").
		SetVal(`{"time_ranges":[{"start":"09:00"}],"slots_per_day":4,"unavailable_dates":["2024-03-01"]}`)

	a, ok, err := dir.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, a.SlotsPerDay)
	assert.Equal(t, "09:00", a.TimeRanges[0]["start"])
	assert.Equal(t, []model.Date{{Year: 2024, Month: 3, Day: 1}}, a.UnavailableDates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisDirectoryGetNormalisesNulls(t *testing.T) {
	db, mock := redismock.NewClientMock()
	dir := NewRedisDirectory(db)

	mock.ExpectGet("availability:doc-1").SetVal(`{"time_ranges":null,"slots_per_day":2,"unavailable_dates":null}`)

	a, ok, err := dir.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, a.TimeRanges)
	assert.NotNil(t, a.UnavailableDates)
}

func TestRedisDirectoryMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	dir := NewRedisDirectory(db)

	mock.ExpectGet("availability:doc-1").RedisNil()

	a, ok, err := dir.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, a)
}

func TestRedisDirectoryError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	dir := NewRedisDirectory(db)
	boom := errors.New("connection refused")

	mock.ExpectGet("availability:doc-1").SetErr(boom)
	_, _, err := dir.Get(context.Background(), "doc-1")
	assert.ErrorIs(t, err, boom)

	mock.ExpectSet("availability:doc-1", []byte(`{"time_ranges":[],"slots_per_day":1,"unavailable_dates":[]}`), 0).SetErr(boom)
	err = dir.Put(context.Background(), "doc-1", &model.Availability{
		TimeRanges: []map[string]any{}, SlotsPerDay: 1, UnavailableDates: []model.Date{},
	})
	assert.ErrorIs(t, err, boom)
}

// The service falls back to the doctor's cap when the directory has nothing.
func TestAvailabilityOfFallsBackThroughRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := New(nil, NewRedisDirectory(db))

	mock.ExpectGet("availability:doc-1").RedisNil()
	a, err := svc.AvailabilityOf(context.Background(), &model.User{ID: "doc-1", AvailableSlotsPerDay: model.Ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, a.SlotsPerDay)
}

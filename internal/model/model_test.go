package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("doctor")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, r)

	r, err = ParseRole("patient")
	require.NoError(t, err)
	assert.Equal(t, RolePatient, r)

	for _, bad := range []string{"", "Doctor", "admin", " patient"} {
		_, err := ParseRole(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"booked", "canceled", "completed"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}
	_, err := ParseStatus("cancelled")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-01-10", false},
		{"2024-02-29", false},
		{"2023-02-29", true},
		{"2024-1-10", true},
		{"10/01/2024", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, d.String())
		})
	}
}

func TestDateOrdering(t *testing.T) {
	a, _ := ParseDate("2024-01-09")
	b, _ := ParseDate("2024-01-10")
	c, _ := ParseDate("2023-12-31")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, c.Before(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, b, a.AddDays(1))
	assert.Equal(t, "2024-01-01", c.AddDays(1).String())
}

func TestTodayUsesUTC(t *testing.T) {
	// 23:30 on the 9th in UTC-5 is already the 10th in UTC
	loc := time.FixedZone("EST", -5*3600)
	now := func() time.Time { return time.Date(2024, 1, 9, 23, 30, 0, 0, loc) }
	assert.Equal(t, "2024-01-10", Today(now).String())
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-05"}`), &v))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 5}, v.D)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-05"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"03/05/2024"}`), &v))
}

func TestDateJSONZero(t *testing.T) {
	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(out))

	for _, in := range []string{`""`, `null`} {
		d := Date{Year: 2024, Month: time.March, Day: 5}
		require.NoError(t, json.Unmarshal([]byte(in), &d), in)
		assert.True(t, d.IsZero(), in)
	}
}

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/scheduling"
)

const appointmentColumns = `id, doctor_id, patient_id, date, time, status, reason, created_at, updated_at`

func scanAppointment(row scanner) (*model.Appointment, error) {
	a := &model.Appointment{}
	var (
		date   time.Time
		status string
	)
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &date, &a.Time, &status, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, noRecord(err)
	}
	a.Date = model.DateOf(date)
	if a.Status, err = model.ParseStatus(status); err != nil {
		return nil, err
	}
	return a, nil
}

// appointmentWhere renders f as a WHERE clause with positional args.
func appointmentWhere(f model.AppointmentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DoctorID != nil {
		add("doctor_id = $%d", *f.DoctorID)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.Date != nil {
		add("date = $%d", f.Date.Time())
	}
	if f.DateBefore != nil {
		add("date < $%d", f.DateBefore.Time())
	}
	if f.DateFrom != nil {
		add("date >= $%d", f.DateFrom.Time())
	}
	if f.Time != nil {
		add("time = $%d", *f.Time)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func listAppointments(ctx context.Context, q querier, f model.AppointmentFilter) ([]model.Appointment, error) {
	where, args := appointmentWhere(f)
	rows, err := q.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments`+where+` ORDER BY date, time, created_at`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func countAppointments(ctx context.Context, q querier, f model.AppointmentFilter) (int, error) {
	where, args := appointmentWhere(f)
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&n)
	return n, err
}

func insertAppointment(ctx context.Context, q querier, a *model.Appointment) error {
	return q.QueryRow(ctx,
		`INSERT INTO appointments (id, doctor_id, patient_id, date, time, status, reason)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.PatientID, a.Date.Time(), a.Time, string(a.Status), a.Reason,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (s *Store) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	return listAppointments(ctx, s.pool, f)
}

func (s *Store) CountAppointments(ctx context.Context, f model.AppointmentFilter) (int, error) {
	return countAppointments(ctx, s.pool, f)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

// UpdateAppointmentStatus is a compare-and-set on status.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status=$3, updated_at=NOW()
		 WHERE id=$1 AND status=$2`, id, string(from), string(to),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}
	return nil
}

// WithDoctorLock locks the doctor's user row for the duration of fn, so
// check-then-insert sequences for one doctor run one at a time.
func (s *Store) WithDoctorLock(ctx context.Context, doctorID string, fn func(scheduling.Tx, *model.User) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	doctor, err := scanUser(tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, doctorID))
	if err != nil {
		return err
	}
	if err := fn(lockedTx{tx}, doctor); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type lockedTx struct {
	tx pgx.Tx
}

func (l lockedTx) CountAppointments(ctx context.Context, f model.AppointmentFilter) (int, error) {
	return countAppointments(ctx, l.tx, f)
}

func (l lockedTx) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	return insertAppointment(ctx, l.tx, a)
}

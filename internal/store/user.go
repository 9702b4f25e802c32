package store

import (
	"context"

	"healthcare-booking-api/internal/model"
)

const userColumns = `id, email, password_hash, full_name, role, phone_number,
	address_line1, address_line2, city, state, pin_code,
	diseases, other_diseases, surgery_history,
	specialization, license_number, experience_years, hospital_affiliated,
	languages_spoken, available_slots_per_day, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	var role string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &role, &u.PhoneNumber,
		&u.AddressLine1, &u.AddressLine2, &u.City, &u.State, &u.PinCode,
		&u.Diseases, &u.OtherDiseases, &u.SurgeryHistory,
		&u.Specialization, &u.LicenseNumber, &u.ExperienceYears, &u.HospitalAffiliated,
		&u.LanguagesSpoken, &u.AvailableSlotsPerDay, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, noRecord(err)
	}
	if u.Role, err = model.ParseRole(role); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.Diseases == nil {
		u.Diseases = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, role, phone_number,
			address_line1, address_line2, city, state, pin_code,
			diseases, other_diseases, surgery_history,
			specialization, license_number, experience_years, hospital_affiliated,
			languages_spoken, available_slots_per_day)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.FullName, string(u.Role), u.PhoneNumber,
		u.AddressLine1, u.AddressLine2, u.City, u.State, u.PinCode,
		u.Diseases, u.OtherDiseases, u.SurgeryHistory,
		u.Specialization, u.LicenseNumber, u.ExperienceYears, u.HospitalAffiliated,
		u.LanguagesSpoken, u.AvailableSlotsPerDay,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) ListDoctors(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = 'doctor' ORDER BY full_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateProfile rewrites the mutable profile fields. Email, password and
// role are left untouched.
func (s *Store) UpdateProfile(ctx context.Context, u *model.User) error {
	if u.Diseases == nil {
		u.Diseases = []string{}
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET full_name=$2, phone_number=$3, address_line1=$4, address_line2=$5,
			city=$6, state=$7, pin_code=$8, diseases=$9, other_diseases=$10, surgery_history=$11,
			specialization=$12, license_number=$13, experience_years=$14, hospital_affiliated=$15,
			languages_spoken=$16, available_slots_per_day=$17, updated_at=NOW()
		 WHERE id=$1
		 RETURNING updated_at`,
		u.ID, u.FullName, u.PhoneNumber, u.AddressLine1, u.AddressLine2,
		u.City, u.State, u.PinCode, u.Diseases, u.OtherDiseases, u.SurgeryHistory,
		u.Specialization, u.LicenseNumber, u.ExperienceYears, u.HospitalAffiliated,
		u.LanguagesSpoken, u.AvailableSlotsPerDay,
	).Scan(&u.UpdatedAt)
	return noRecord(err)
}

package appointments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the appointments table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a Postgres-backed repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	return &PostgresRepository{db: db}
}

const selectColumns = `id, COALESCE(patient_id, 0), patient_name, patient_phone, professional_id,
	COALESCE(service_id, 0), service_name, to_char(appointment_date, 'YYYY-MM-DD'), start_time, end_time, status, notes`

// List returns the clinic's appointments ordered by date and start time.
func (r *PostgresRepository) List(ctx context.Context, clinicID int64) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+selectColumns+`
		FROM appointments
		WHERE clinic_id = $1
		ORDER BY appointment_date ASC, start_time ASC, id ASC`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		var patientID, svcID int64
		var status string
		// professional_id stays nullable so rows written elsewhere without one
		// surface as unassigned instead of failing the whole list.
		if err := rows.Scan(&a.ID, &patientID, &a.PatientName, &a.PatientPhone, &a.ProfessionalID,
			&svcID, &a.ServiceName, &a.Date, &a.Time, &a.EndTime, &status, &a.Notes); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		if patientID > 0 {
			a.PatientID = int64Ptr(patientID)
		}
		if svcID > 0 {
			a.ServiceID = int64Ptr(svcID)
		}
		a.Status = Status(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// Create inserts a new appointment and returns it with its id.
func (r *PostgresRepository) Create(ctx context.Context, clinicID int64, p Payload) (*Appointment, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (clinic_id, patient_id, patient_name, patient_phone, professional_id,
			service_id, service_name, appointment_date, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id`,
		clinicID, p.PatientID, p.PatientName, p.PatientPhone, p.ProfessionalID,
		p.ServiceID, p.ServiceName, p.Date, p.Time, p.EndTime, string(p.Status), p.Notes,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	a := p.Appointment(id)
	return &a, nil
}

// Update overwrites an appointment that belongs to the clinic.
func (r *PostgresRepository) Update(ctx context.Context, clinicID, id int64, p Payload) (*Appointment, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET patient_id = $3, patient_name = $4, patient_phone = $5, professional_id = $6,
			service_id = $7, service_name = $8, appointment_date = $9::date, start_time = $10,
			end_time = $11, status = $12, notes = $13, updated_at = NOW()
		WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, p.PatientID, p.PatientName, p.PatientPhone, p.ProfessionalID,
		p.ServiceID, p.ServiceName, p.Date, p.Time, p.EndTime, string(p.Status), p.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	a := p.Appointment(id)
	return &a, nil
}

// Delete removes an appointment that belongs to the clinic.
func (r *PostgresRepository) Delete(ctx context.Context, clinicID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

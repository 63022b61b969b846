package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, clinic_id, client_id, professional_id, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.ClinicID,
		apt.ClientID,
		apt.ProfessionalID,
		apt.StartTime,
		apt.EndTime,
		apt.Status,
		apt.Notes,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, clinic_id, client_id, professional_id, start_time, end_time, status, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $6
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.StartTime,
		apt.EndTime,
		apt.Status,
		apt.Notes,
		apt.UpdatedAt,
		apt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, clinic_id, client_id, professional_id, start_time, end_time, status, notes, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1 AND start_time >= $2 AND start_time <= $3 AND deleted_at IS NULL
		ORDER BY start_time ASC
	`
	var apts []*model.Appointment
	err := r.db.SelectContext(ctx, &apts, query, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return apts, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *membershipRepository) Create(ctx context.Context, tx *sqlx.Tx, m *model.ClinicMembership) error {
	query := `
		INSERT INTO clinic_memberships (id, clinic_id, user_id, role, commission_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		m.ID,
		m.ClinicID,
		m.UserID,
		m.Role,
		m.CommissionRate,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *membershipRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicMembership, error) {
	query := `
		SELECT id, clinic_id, user_id, role, commission_rate, created_at, updated_at
		FROM clinic_memberships
		WHERE id = $1 AND deleted_at IS NULL
	`
	var m model.ClinicMembership
	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

func (r *membershipRepository) GetByClinicAndUser(ctx context.Context, clinicID, userID uuid.UUID) (*model.ClinicMembership, error) {
	query := `
		SELECT id, clinic_id, user_id, role, commission_rate, created_at, updated_at
		FROM clinic_memberships
		WHERE clinic_id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	var m model.ClinicMembership
	err := r.db.GetContext(ctx, &m, query, clinicID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

func (r *membershipRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.ClinicMembership, error) {
	query := `
		SELECT id, clinic_id, user_id, role, commission_rate, created_at, updated_at
		FROM clinic_memberships
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var members []*model.ClinicMembership
	err := r.db.SelectContext(ctx, &members, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return members, nil
}

func (r *membershipRepository) Update(ctx context.Context, m *model.ClinicMembership) error {
	query := `
		UPDATE clinic_memberships
		SET role = $1, commission_rate = $2, updated_at = $3
		WHERE id = $4
	`
	m.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, m.Role, m.CommissionRate, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
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

func (r *membershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE clinic_memberships
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
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

func (r *membershipRepository) CountByClinicAndRole(ctx context.Context, clinicID uuid.UUID, role model.ClinicRole) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM clinic_memberships
		WHERE clinic_id = $1 AND role = $2 AND deleted_at IS NULL
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, clinicID, role)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}

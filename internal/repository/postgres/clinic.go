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

func (r *clinicRepository) Create(ctx context.Context, tx *sqlx.Tx, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	clinic.ID = uuid.New()
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Location,
		clinic.Status,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `
		SELECT id, name, location, status, created_at, updated_at
		FROM clinics
		WHERE id = $1 AND deleted_at IS NULL
	`
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, location = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	clinic.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Location,
		clinic.Status,
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
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

func (r *clinicRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE clinics
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete clinic: %w", err)
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

func (r *clinicRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Clinic, error) {
	query := `
		SELECT c.id, c.name, c.location, c.status, c.created_at, c.updated_at
		FROM clinics c
		JOIN clinic_memberships m ON c.id = m.clinic_id
		WHERE m.user_id = $1 AND c.deleted_at IS NULL AND m.deleted_at IS NULL
		ORDER BY c.created_at DESC
	`
	var clinics []*model.Clinic
	err := r.db.SelectContext(ctx, &clinics, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

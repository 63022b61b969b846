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

func (r *invitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	query := `
		INSERT INTO invitations (id, clinic_id, email, role, token, permissions, status, expires_at, commission_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.ClinicID,
		inv.Email,
		inv.Role,
		inv.Token,
		inv.Permissions,
		inv.Status,
		inv.ExpiresAt,
		inv.CommissionRate,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *invitationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	query := `
		SELECT id, clinic_id, email, role, token, permissions, status, expires_at, commission_rate, created_at, updated_at
		FROM invitations
		WHERE id = $1
	`
	var inv model.Invitation
	err := r.db.GetContext(ctx, &inv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	query := `
		SELECT id, clinic_id, email, role, token, permissions, status, expires_at, commission_rate, created_at, updated_at
		FROM invitations
		WHERE token = $1
	`
	var inv model.Invitation
	err := r.db.GetContext(ctx, &inv, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

func (r *invitationRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Invitation, error) {
	query := `
		SELECT id, clinic_id, email, role, token, permissions, status, expires_at, commission_rate, created_at, updated_at
		FROM invitations
		WHERE clinic_id = $1
		ORDER BY created_at DESC
	`
	var invs []*model.Invitation
	err := r.db.SelectContext(ctx, &invs, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

func (r *invitationRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.InvitationStatus) error {
	query := `
		UPDATE invitations
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := tx.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
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

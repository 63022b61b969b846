package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *permissionRepository) Grant(ctx context.Context, p *model.Permission) error {
	return grantPermission(ctx, r.db, p)
}

func (r *permissionRepository) GrantTx(ctx context.Context, tx *sqlx.Tx, p *model.Permission) error {
	return grantPermission(ctx, tx, p)
}

func grantPermission(ctx context.Context, q sqlx.ExtContext, p *model.Permission) error {
	query := `
		INSERT INTO permissions (id, membership_id, module, action, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (membership_id, module, action) DO NOTHING
	`
	p.ID = uuid.New()
	p.CreatedAt = time.Now()

	_, err := q.ExecContext(ctx, query, p.ID, p.MembershipID, p.Module, p.Action, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

func (r *permissionRepository) Revoke(ctx context.Context, membershipID uuid.UUID, module, action string) error {
	query := `
		DELETE FROM permissions
		WHERE membership_id = $1 AND module = $2 AND action = $3
	`
	result, err := r.db.ExecContext(ctx, query, membershipID, module, action)
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
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

func (r *permissionRepository) Has(ctx context.Context, membershipID uuid.UUID, module, action string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM permissions
			WHERE membership_id = $1 AND module = $2 AND action = $3
		)
	`
	var has bool
	err := r.db.GetContext(ctx, &has, query, membershipID, module, action)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return has, nil
}

func (r *permissionRepository) ListByMembership(ctx context.Context, membershipID uuid.UUID) ([]*model.Permission, error) {
	query := `
		SELECT id, membership_id, module, action, created_at
		FROM permissions
		WHERE membership_id = $1
		ORDER BY module ASC, action ASC
	`
	var perms []*model.Permission
	err := r.db.SelectContext(ctx, &perms, query, membershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

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

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, clinic_id, client_id, appointment_id, amount, status, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.ClinicID,
		payment.ClientID,
		payment.AppointmentID,
		payment.Amount,
		payment.Status,
		payment.PaymentMethod,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, clinic_id, client_id, appointment_id, amount, status, payment_method, payment_date, refund_amount, refund_reason, created_at, updated_at
		FROM payments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, payment_date = $2, refund_amount = $3, refund_reason = $4, updated_at = $5
		WHERE id = $6
	`
	payment.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		payment.Status,
		payment.PaymentDate,
		payment.RefundAmount,
		payment.RefundReason,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
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

func (r *paymentRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error) {
	query := `
		SELECT id, clinic_id, client_id, appointment_id, amount, status, payment_method, payment_date, refund_amount, refund_reason, created_at, updated_at
		FROM payments
		WHERE clinic_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{clinicID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var payments []*model.Payment
	err := r.db.SelectContext(ctx, &payments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *commissionRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, c *model.Commission) error {
	query := `
		INSERT INTO commissions (id, clinic_id, professional_id, payment_id, amount, rate, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		c.ID,
		c.ClinicID,
		c.ProfessionalID,
		c.PaymentID,
		c.Amount,
		c.Rate,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create commission: %w", err)
	}
	return nil
}

func (r *commissionRepository) ExistsForPayment(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM commissions WHERE payment_id = $1
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to check commission: %w", err)
	}
	return exists, nil
}

func (r *commissionRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Commission, error) {
	query := `
		SELECT id, clinic_id, professional_id, payment_id, amount, rate, status, created_at, updated_at
		FROM commissions
		WHERE clinic_id = $1
		ORDER BY created_at DESC
	`
	var commissions []*model.Commission
	err := r.db.SelectContext(ctx, &commissions, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	return commissions, nil
}

func (r *commissionRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*model.Commission, error) {
	query := `
		SELECT id, clinic_id, professional_id, payment_id, amount, rate, status, created_at, updated_at
		FROM commissions
		WHERE professional_id = $1
		ORDER BY created_at DESC
	`
	var commissions []*model.Commission
	err := r.db.SelectContext(ctx, &commissions, query, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	return commissions, nil
}

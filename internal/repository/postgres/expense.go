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

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	query := `
		INSERT INTO expenses (id, clinic_id, description, amount, category, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	expense.ID = uuid.New()
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		expense.ID,
		expense.ClinicID,
		expense.Description,
		expense.Amount,
		expense.Category,
		expense.Status,
		expense.DueDate,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *expenseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	query := `
		SELECT id, clinic_id, description, amount, category, status, due_date, payment_date, payment_method, created_at, updated_at
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL
	`
	var expense model.Expense
	err := r.db.GetContext(ctx, &expense, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &expense, nil
}

func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return updateExpense(ctx, r.db, expense)
}

func (r *expenseRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, expense *model.Expense) error {
	return updateExpense(ctx, tx, expense)
}

func updateExpense(ctx context.Context, q sqlx.ExtContext, expense *model.Expense) error {
	query := `
		UPDATE expenses
		SET description = $1, amount = $2, category = $3, status = $4, due_date = $5, payment_date = $6, payment_method = $7, updated_at = $8
		WHERE id = $9
	`
	expense.UpdatedAt = time.Now()

	result, err := q.ExecContext(ctx, query,
		expense.Description,
		expense.Amount,
		expense.Category,
		expense.Status,
		expense.DueDate,
		expense.PaymentDate,
		expense.PaymentMethod,
		expense.UpdatedAt,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
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

func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE expenses
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
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

func (r *expenseRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, status model.ExpenseStatus) ([]*model.Expense, error) {
	query := `
		SELECT id, clinic_id, description, amount, category, status, due_date, payment_date, payment_method, created_at, updated_at
		FROM expenses
		WHERE clinic_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{clinicID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY due_date ASC`

	var expenses []*model.Expense
	err := r.db.SelectContext(ctx, &expenses, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (r *expenseRepository) ListDueInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.Expense, error) {
	query := `
		SELECT id, clinic_id, description, amount, category, status, due_date, payment_date, payment_method, created_at, updated_at
		FROM expenses
		WHERE clinic_id = $1 AND due_date >= $2 AND due_date <= $3 AND deleted_at IS NULL
		ORDER BY due_date ASC, created_at ASC
	`
	var expenses []*model.Expense
	err := r.db.SelectContext(ctx, &expenses, query, clinicID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses in range: %w", err)
	}
	return expenses, nil
}

func (r *expenseRepository) SumPendingInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE clinic_id = $1 AND status = $2 AND due_date >= $3 AND due_date <= $4 AND deleted_at IS NULL
	`
	var sum int64
	err := r.db.GetContext(ctx, &sum, query, clinicID, model.ExpenseStatusPending, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending expenses: %w", err)
	}
	return sum, nil
}

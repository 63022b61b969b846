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

func (r *budgetRepository) Create(ctx context.Context, budget *model.Budget) error {
	query := `
		INSERT INTO budgets (id, clinic_id, year, month, amount, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	budget.ID = uuid.New()
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		budget.ID,
		budget.ClinicID,
		budget.Year,
		budget.Month,
		budget.Amount,
		budget.Category,
		budget.CreatedAt,
		budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

func (r *budgetRepository) Get(ctx context.Context, id uuid.UUID) (*model.Budget, error) {
	query := `
		SELECT id, clinic_id, year, month, amount, category, created_at, updated_at
		FROM budgets
		WHERE id = $1 AND deleted_at IS NULL
	`
	var budget model.Budget
	err := r.db.GetContext(ctx, &budget, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &budget, nil
}

func (r *budgetRepository) Update(ctx context.Context, budget *model.Budget) error {
	query := `
		UPDATE budgets
		SET amount = $1, category = $2, updated_at = $3
		WHERE id = $4
	`
	budget.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, budget.Amount, budget.Category, budget.UpdatedAt, budget.ID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
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

func (r *budgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE budgets
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
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

func (r *budgetRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, year int) ([]*model.Budget, error) {
	query := `
		SELECT id, clinic_id, year, month, amount, category, created_at, updated_at
		FROM budgets
		WHERE clinic_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{clinicID}
	if year > 0 {
		query += ` AND year = $2`
		args = append(args, year)
	}
	query += ` ORDER BY year DESC, month DESC`

	var budgets []*model.Budget
	err := r.db.SelectContext(ctx, &budgets, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

func (r *budgetRepository) ExistsForMonth(ctx context.Context, clinicID uuid.UUID, year, month int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE clinic_id = $1 AND year = $2 AND month = $3 AND deleted_at IS NULL
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, clinicID, year, month)
	if err != nil {
		return false, fmt.Errorf("failed to check budget: %w", err)
	}
	return exists, nil
}

func (r *financialGoalRepository) Create(ctx context.Context, goal *model.FinancialGoal) error {
	query := `
		INSERT INTO financial_goals (id, clinic_id, name, target_value, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	goal.ID = uuid.New()
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.ClinicID,
		goal.Name,
		goal.TargetValue,
		goal.StartDate,
		goal.EndDate,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create financial goal: %w", err)
	}
	return nil
}

func (r *financialGoalRepository) Get(ctx context.Context, id uuid.UUID) (*model.FinancialGoal, error) {
	query := `
		SELECT id, clinic_id, name, target_value, start_date, end_date, created_at, updated_at
		FROM financial_goals
		WHERE id = $1 AND deleted_at IS NULL
	`
	var goal model.FinancialGoal
	err := r.db.GetContext(ctx, &goal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get financial goal: %w", err)
	}
	return &goal, nil
}

func (r *financialGoalRepository) Update(ctx context.Context, goal *model.FinancialGoal) error {
	query := `
		UPDATE financial_goals
		SET name = $1, target_value = $2, start_date = $3, end_date = $4, updated_at = $5
		WHERE id = $6
	`
	goal.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		goal.Name,
		goal.TargetValue,
		goal.StartDate,
		goal.EndDate,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update financial goal: %w", err)
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

func (r *financialGoalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE financial_goals
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete financial goal: %w", err)
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

func (r *financialGoalRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.FinancialGoal, error) {
	query := `
		SELECT id, clinic_id, name, target_value, start_date, end_date, created_at, updated_at
		FROM financial_goals
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY start_date DESC
	`
	var goals []*model.FinancialGoal
	err := r.db.SelectContext(ctx, &goals, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial goals: %w", err)
	}
	return goals, nil
}

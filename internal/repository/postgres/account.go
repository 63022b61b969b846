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

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, clinic_id, name, balance, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.ClinicID,
		account.Name,
		account.Balance,
		account.IsDefault,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `
		SELECT id, clinic_id, name, balance, is_default, created_at, updated_at
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL
	`
	var account model.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, updated_at = $2
		WHERE id = $3
	`
	account.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, account.Name, account.UpdatedAt, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
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

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
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

func (r *accountRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Account, error) {
	query := `
		SELECT id, clinic_id, name, balance, is_default, created_at, updated_at
		FROM accounts
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var accounts []*model.Account
	err := r.db.SelectContext(ctx, &accounts, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) PaymentTarget(ctx context.Context, clinicID uuid.UUID) (*model.Account, error) {
	query := `
		SELECT id, clinic_id, name, balance, is_default, created_at, updated_at
		FROM accounts
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY is_default DESC, created_at ASC
		LIMIT 1
	`
	var account model.Account
	err := r.db.GetContext(ctx, &account, query, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment account: %w", err)
	}
	return &account, nil
}

// SetDefault clears any existing default and marks the given account in the
// same transaction, so concurrent callers cannot leave two defaults behind.
func (r *accountRepository) SetDefault(ctx context.Context, tx *sqlx.Tx, clinicID, accountID uuid.UUID) error {
	clear := `
		UPDATE accounts
		SET is_default = FALSE, updated_at = $1
		WHERE clinic_id = $2 AND is_default = TRUE AND id <> $3
	`
	if _, err := tx.ExecContext(ctx, clear, time.Now(), clinicID, accountID); err != nil {
		return fmt.Errorf("failed to clear default account: %w", err)
	}

	set := `
		UPDATE accounts
		SET is_default = TRUE, updated_at = $1
		WHERE id = $2 AND clinic_id = $3 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, set, time.Now(), accountID, clinicID)
	if err != nil {
		return fmt.Errorf("failed to set default account: %w", err)
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

func (r *accountRepository) AdjustBalanceTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, delta int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3
	`
	result, err := tx.ExecContext(ctx, query, delta, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("failed to adjust account balance: %w", err)
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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *transactionRepository) Create(ctx context.Context, txn *model.FinancialTransaction) error {
	return createTransaction(ctx, r.db, txn)
}

func (r *transactionRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, txn *model.FinancialTransaction) error {
	return createTransaction(ctx, tx, txn)
}

func createTransaction(ctx context.Context, q sqlx.ExtContext, txn *model.FinancialTransaction) error {
	query := `
		INSERT INTO financial_transactions (id, clinic_id, account_id, amount, type, category, description, date, expense_id, payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	txn.ID = uuid.New()
	txn.CreatedAt = time.Now()

	_, err := q.ExecContext(ctx, query,
		txn.ID,
		txn.ClinicID,
		txn.AccountID,
		txn.Amount,
		txn.Type,
		txn.Category,
		txn.Description,
		txn.Date,
		txn.ExpenseID,
		txn.PaymentID,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ListInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.FinancialTransaction, error) {
	query := `
		SELECT id, clinic_id, account_id, amount, type, category, description, date, expense_id, payment_id, created_at
		FROM financial_transactions
		WHERE clinic_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, created_at ASC
	`
	var txns []*model.FinancialTransaction
	err := r.db.SelectContext(ctx, &txns, query, clinicID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

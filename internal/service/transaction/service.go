package transaction

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
)

// Service records manual ledger entries. Expense and payment lifecycles
// write their own ledger rows; this path covers adjustments that have no
// backing document, like an opening balance or a bank correction.
type Service struct {
	transactions repository.TransactionRepository
	accounts     repository.AccountRepository
	txm          repository.TxManager
	logger       zerolog.Logger
}

func NewService(
	transactions repository.TransactionRepository,
	accounts repository.AccountRepository,
	txm repository.TxManager,
	logger zerolog.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		accounts:     accounts,
		txm:          txm,
		logger:       logger,
	}
}

// Record appends a ledger row for the clinic. The stored amount is signed
// by type: expense rows are negative, everything else keeps the sign as
// submitted. When an account is named the entry and the balance adjustment
// commit in one transaction; without one the row is a bare ledger entry.
func (s *Service) Record(ctx context.Context, clinicID uuid.UUID, req *model.CreateTransactionRequest) (*model.FinancialTransaction, error) {
	amount := req.Amount
	if req.Type == model.TransactionTypeExpense && amount > 0 {
		amount = -amount
	}

	txn := &model.FinancialTransaction{
		ClinicID:    clinicID,
		AccountID:   req.AccountID,
		Amount:      amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	}

	if req.AccountID == nil {
		if err := s.transactions.Create(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to record transaction: %w", err)
		}
		return txn, nil
	}

	account, err := s.accounts.Get(ctx, *req.AccountID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("account", err)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account.ClinicID != clinicID {
		return nil, errors.NotFound("account", nil)
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		return s.accounts.AdjustBalanceTx(ctx, tx, account.ID, amount)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("transaction_id", txn.ID.String()).
		Str("clinic_id", clinicID.String()).
		Int64("amount", amount).
		Msg("manual transaction recorded")
	return txn, nil
}

// List returns the clinic's ledger rows inside [start, end].
func (s *Service) List(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.FinancialTransaction, error) {
	txns, err := s.transactions.ListInRange(ctx, clinicID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

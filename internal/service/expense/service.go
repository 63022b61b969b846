package expense

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
	"github.com/clinicore/clinic-api/internal/service/event"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// Service owns the expense lifecycle. Paying or cancelling an expense is a
// single database transaction covering the status change, the ledger entry,
// the account balance and the outbox event.
type Service struct {
	expenses     repository.ExpenseRepository
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	outbox       repository.OutboxRepository
	txm          repository.TxManager
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewService(
	expenses repository.ExpenseRepository,
	accounts repository.AccountRepository,
	transactions repository.TransactionRepository,
	outbox repository.OutboxRepository,
	txm repository.TxManager,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		expenses:     expenses,
		accounts:     accounts,
		transactions: transactions,
		outbox:       outbox,
		txm:          txm,
		metrics:      m,
		logger:       logger,
	}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req *model.CreateExpenseRequest) (*model.Expense, error) {
	expense := &model.Expense{
		ClinicID:    clinicID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Status:      model.ExpenseStatusPending,
		DueDate:     req.DueDate,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return expense, nil
}

// Get loads an expense and verifies it belongs to clinicID. An expense from
// another clinic is reported as not found so callers cannot enumerate foreign
// record ids.
func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Expense, error) {
	expense, err := s.expenses.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("expense", err)
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if expense.ClinicID != clinicID {
		return nil, errors.NotFound("expense", nil)
	}
	return expense, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, status model.ExpenseStatus) ([]*model.Expense, error) {
	expenses, err := s.expenses.ListByClinic(ctx, clinicID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateExpenseRequest) (*model.Expense, error) {
	expense, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != model.ExpenseStatusPending {
		return nil, errors.BadRequest("only pending expenses can be edited", nil)
	}

	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Category != nil {
		expense.Category = *req.Category
	}
	if req.DueDate != nil {
		expense.DueDate = *req.DueDate
	}

	if err := s.expenses.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return expense, nil
}

func (s *Service) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.Get(ctx, clinicID, id); err != nil {
		return err
	}
	if err := s.expenses.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("expense", err)
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// Pay moves a pending expense to PAID. When the clinic has at least one
// account, a negative ledger entry is written and the target account's
// balance is debited in the same transaction. Clinics without accounts get
// the status change alone.
func (s *Service) Pay(ctx context.Context, clinicID, id uuid.UUID, req *model.PayExpenseRequest) (*model.Expense, error) {
	expense, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != model.ExpenseStatusPending {
		return nil, errors.BadRequest("expense is not pending", nil)
	}

	account, err := s.accounts.PaymentTarget(ctx, expense.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment account: %w", err)
	}

	now := time.Now()
	expense.Status = model.ExpenseStatusPaid
	expense.PaymentDate = &now
	expense.PaymentMethod = &req.PaymentMethod

	evt, err := event.New(model.EventExpensePaid, expense)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.expenses.UpdateTx(ctx, tx, expense); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if account != nil {
			txn := &model.FinancialTransaction{
				ClinicID:    expense.ClinicID,
				AccountID:   &account.ID,
				Amount:      -expense.Amount,
				Type:        model.TransactionTypeExpense,
				Category:    expense.Category,
				Description: expense.Description,
				Date:        now,
				ExpenseID:   &expense.ID,
			}
			if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
				return fmt.Errorf("failed to record expense transaction: %w", err)
			}
			if err := s.accounts.AdjustBalanceTx(ctx, tx, account.ID, -expense.Amount); err != nil {
				return fmt.Errorf("failed to debit account: %w", err)
			}
		}
		return s.outbox.CreateTx(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ExpensesPaid.Inc()
	}
	s.logger.Info().
		Str("expense_id", expense.ID.String()).
		Str("clinic_id", expense.ClinicID.String()).
		Int64("amount", expense.Amount).
		Msg("expense paid")

	return expense, nil
}

// Cancel moves a pending expense to CANCELLED. Cancelled expenses are kept
// for history but excluded from every financial report.
func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID) (*model.Expense, error) {
	expense, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != model.ExpenseStatusPending {
		return nil, errors.BadRequest("expense is not pending", nil)
	}

	expense.Status = model.ExpenseStatusCancelled

	evt, err := event.New(model.EventExpenseCancelled, expense)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.expenses.UpdateTx(ctx, tx, expense); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		return s.outbox.CreateTx(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("expense_id", expense.ID.String()).
		Str("clinic_id", expense.ClinicID.String()).
		Msg("expense cancelled")

	return expense, nil
}

package payment

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
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

// Service owns the payment lifecycle. Confirming a payment credits the
// clinic's account, writes the ledger entry and, when the payment is tied
// to an appointment whose professional has a commission rate, creates the
// commission, all in one transaction.
type Service struct {
	payments     repository.PaymentRepository
	commissions  repository.CommissionRepository
	appointments repository.AppointmentRepository
	memberships  repository.MembershipRepository
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	outbox       repository.OutboxRepository
	txm          repository.TxManager
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewService(
	payments repository.PaymentRepository,
	commissions repository.CommissionRepository,
	appointments repository.AppointmentRepository,
	memberships repository.MembershipRepository,
	accounts repository.AccountRepository,
	transactions repository.TransactionRepository,
	outbox repository.OutboxRepository,
	txm repository.TxManager,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		payments:     payments,
		commissions:  commissions,
		appointments: appointments,
		memberships:  memberships,
		accounts:     accounts,
		transactions: transactions,
		outbox:       outbox,
		txm:          txm,
		metrics:      m,
		logger:       logger,
	}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req *model.CreatePaymentRequest) (*model.Payment, error) {
	payment := &model.Payment{
		ClinicID:      clinicID,
		ClientID:      req.ClientID,
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Status:        model.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

// Get loads a payment and verifies it belongs to clinicID. Payments of other
// clinics are reported as not found so foreign ids stay unguessable.
func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("payment", err)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.ClinicID != clinicID {
		return nil, errors.NotFound("payment", nil)
	}
	return payment, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error) {
	payments, err := s.payments.ListByClinic(ctx, clinicID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// Confirm moves a pending payment to PAID. Confirming an already paid
// payment is a no-op returning the record unchanged, so retried requests
// never double-credit the account or duplicate the commission.
func (s *Service) Confirm(ctx context.Context, clinicID, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentStatusPaid {
		return payment, nil
	}
	if payment.Status != model.PaymentStatusPending {
		return nil, errors.BadRequest("payment is not pending", nil)
	}

	account, err := s.accounts.PaymentTarget(ctx, payment.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment account: %w", err)
	}

	commission, err := s.buildCommission(ctx, payment)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment.Status = model.PaymentStatusPaid
	payment.PaymentDate = &now

	evt, err := event.New(model.EventPaymentConfirmed, payment)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.UpdateTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if account != nil {
			txn := &model.FinancialTransaction{
				ClinicID:    payment.ClinicID,
				AccountID:   &account.ID,
				Amount:      payment.Amount,
				Type:        model.TransactionTypeIncome,
				Category:    "payment",
				Description: fmt.Sprintf("payment %s via %s", payment.ID, payment.PaymentMethod),
				Date:        now,
				PaymentID:   &payment.ID,
			}
			if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
				return fmt.Errorf("failed to record payment transaction: %w", err)
			}
			if err := s.accounts.AdjustBalanceTx(ctx, tx, account.ID, payment.Amount); err != nil {
				return fmt.Errorf("failed to credit account: %w", err)
			}
		}
		if commission != nil {
			if err := s.commissions.CreateTx(ctx, tx, commission); err != nil {
				return fmt.Errorf("failed to create commission: %w", err)
			}
		}
		return s.outbox.CreateTx(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsConfirmed.Inc()
	}
	s.logger.Info().
		Str("payment_id", payment.ID.String()).
		Str("clinic_id", payment.ClinicID.String()).
		Int64("amount", payment.Amount).
		Bool("commission", commission != nil).
		Msg("payment confirmed")

	return payment, nil
}

// buildCommission resolves the professional behind the payment's
// appointment and returns the commission row to insert, or nil when no
// commission applies. A commission already on record for this payment
// means a previous confirmation got far enough to insert it, so none is
// returned.
func (s *Service) buildCommission(ctx context.Context, payment *model.Payment) (*model.Commission, error) {
	if payment.AppointmentID == nil {
		return nil, nil
	}

	apt, err := s.appointments.Get(ctx, *payment.AppointmentID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	membership, err := s.memberships.Get(ctx, apt.ProfessionalID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get professional membership: %w", err)
	}
	if membership.CommissionRate == nil || *membership.CommissionRate <= 0 {
		return nil, nil
	}

	exists, err := s.commissions.ExistsForPayment(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing commission: %w", err)
	}
	if exists {
		return nil, nil
	}

	rate := *membership.CommissionRate
	return &model.Commission{
		ClinicID:       payment.ClinicID,
		ProfessionalID: apt.ProfessionalID,
		PaymentID:      payment.ID,
		Amount:         int64(math.Round(float64(payment.Amount) * rate)),
		Rate:           rate,
		Status:         model.CommissionStatusPending,
	}, nil
}

// ListCommissions returns the clinic's commissions, narrowed to one
// professional membership when professionalID is set. Rows from other
// clinics never leak through the professional filter.
func (s *Service) ListCommissions(ctx context.Context, clinicID uuid.UUID, professionalID *uuid.UUID) ([]*model.Commission, error) {
	if professionalID == nil {
		commissions, err := s.commissions.ListByClinic(ctx, clinicID)
		if err != nil {
			return nil, fmt.Errorf("failed to list commissions: %w", err)
		}
		return commissions, nil
	}

	commissions, err := s.commissions.ListByProfessional(ctx, *professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	scoped := make([]*model.Commission, 0, len(commissions))
	for _, c := range commissions {
		if c.ClinicID == clinicID {
			scoped = append(scoped, c)
		}
	}
	return scoped, nil
}

// Refund reverses a paid payment, fully or partially. A refund for the
// full amount moves the payment to REFUNDED; anything less moves it to
// PARTIAL. The refund can never exceed the original amount.
func (s *Service) Refund(ctx context.Context, clinicID, id uuid.UUID, req *model.RefundPaymentRequest) (*model.Payment, error) {
	payment, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusPaid {
		return nil, errors.BadRequest("only paid payments can be refunded", nil)
	}

	amount := payment.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount > payment.Amount {
		return nil, errors.BadRequest("refund amount exceeds original payment", nil)
	}

	now := time.Now()
	if amount == payment.Amount {
		payment.Status = model.PaymentStatusRefunded
	} else {
		payment.Status = model.PaymentStatusPartial
	}
	payment.RefundAmount = &amount
	payment.RefundReason = req.Reason

	account, err := s.accounts.PaymentTarget(ctx, payment.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment account: %w", err)
	}

	evt, err := event.New(model.EventPaymentRefunded, payment)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.payments.UpdateTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if account != nil {
			txn := &model.FinancialTransaction{
				ClinicID:    payment.ClinicID,
				AccountID:   &account.ID,
				Amount:      -amount,
				Type:        model.TransactionTypeExpense,
				Category:    "refund",
				Description: fmt.Sprintf("refund of payment %s", payment.ID),
				Date:        now,
				PaymentID:   &payment.ID,
			}
			if err := s.transactions.CreateTx(ctx, tx, txn); err != nil {
				return fmt.Errorf("failed to record refund transaction: %w", err)
			}
			if err := s.accounts.AdjustBalanceTx(ctx, tx, account.ID, -amount); err != nil {
				return fmt.Errorf("failed to debit account: %w", err)
			}
		}
		return s.outbox.CreateTx(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRefunded.Inc()
	}
	s.logger.Info().
		Str("payment_id", payment.ID.String()).
		Int64("refund_amount", amount).
		Str("status", string(payment.Status)).
		Msg("payment refunded")

	return payment, nil
}

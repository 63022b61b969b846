package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type fakePaymentRepo struct {
	repository.PaymentRepository
	payment *model.Payment
	getErr  error
	updated *model.Payment
}

func (f *fakePaymentRepo) Get(_ context.Context, _ uuid.UUID) (*model.Payment, error) {
	return f.payment, f.getErr
}

func (f *fakePaymentRepo) UpdateTx(_ context.Context, _ *sqlx.Tx, p *model.Payment) error {
	f.updated = p
	return nil
}

type fakeCommissionRepo struct {
	repository.CommissionRepository
	exists         bool
	created        []*model.Commission
	byClinic       []*model.Commission
	byProfessional []*model.Commission
}

func (f *fakeCommissionRepo) ListByClinic(_ context.Context, _ uuid.UUID) ([]*model.Commission, error) {
	return f.byClinic, nil
}

func (f *fakeCommissionRepo) ListByProfessional(_ context.Context, _ uuid.UUID) ([]*model.Commission, error) {
	return f.byProfessional, nil
}

func (f *fakeCommissionRepo) ExistsForPayment(_ context.Context, _ uuid.UUID) (bool, error) {
	return f.exists, nil
}

func (f *fakeCommissionRepo) CreateTx(_ context.Context, _ *sqlx.Tx, c *model.Commission) error {
	f.created = append(f.created, c)
	return nil
}

type fakeAppointmentRepo struct {
	repository.AppointmentRepository
	appointment *model.Appointment
	getErr      error
}

func (f *fakeAppointmentRepo) Get(_ context.Context, _ uuid.UUID) (*model.Appointment, error) {
	return f.appointment, f.getErr
}

type fakeMembershipRepo struct {
	repository.MembershipRepository
	membership *model.ClinicMembership
	getErr     error
}

func (f *fakeMembershipRepo) Get(_ context.Context, _ uuid.UUID) (*model.ClinicMembership, error) {
	return f.membership, f.getErr
}

type fakeAccountRepo struct {
	repository.AccountRepository
	target   *model.Account
	adjusted map[uuid.UUID]int64
}

func (f *fakeAccountRepo) PaymentTarget(_ context.Context, _ uuid.UUID) (*model.Account, error) {
	return f.target, nil
}

func (f *fakeAccountRepo) AdjustBalanceTx(_ context.Context, _ *sqlx.Tx, accountID uuid.UUID, delta int64) error {
	if f.adjusted == nil {
		f.adjusted = make(map[uuid.UUID]int64)
	}
	f.adjusted[accountID] += delta
	return nil
}

type fakeTransactionRepo struct {
	repository.TransactionRepository
	created []*model.FinancialTransaction
}

func (f *fakeTransactionRepo) CreateTx(_ context.Context, _ *sqlx.Tx, txn *model.FinancialTransaction) error {
	f.created = append(f.created, txn)
	return nil
}

type fakeOutboxRepo struct {
	repository.OutboxRepository
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) CreateTx(_ context.Context, _ *sqlx.Tx, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

type stubTxManager struct {
	runs int
}

func (s *stubTxManager) RunInTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	s.runs++
	return fn(nil)
}

type fixture struct {
	payments     *fakePaymentRepo
	commissions  *fakeCommissionRepo
	appointments *fakeAppointmentRepo
	memberships  *fakeMembershipRepo
	accounts     *fakeAccountRepo
	transactions *fakeTransactionRepo
	outbox       *fakeOutboxRepo
	txm          *stubTxManager
	svc          *Service
}

func newFixture(payment *model.Payment) *fixture {
	f := &fixture{
		payments:     &fakePaymentRepo{payment: payment},
		commissions:  &fakeCommissionRepo{},
		appointments: &fakeAppointmentRepo{getErr: repository.ErrNotFound},
		memberships:  &fakeMembershipRepo{getErr: repository.ErrNotFound},
		accounts:     &fakeAccountRepo{},
		transactions: &fakeTransactionRepo{},
		outbox:       &fakeOutboxRepo{},
		txm:          &stubTxManager{},
	}
	f.svc = NewService(
		f.payments, f.commissions, f.appointments, f.memberships,
		f.accounts, f.transactions, f.outbox, f.txm, nil, zerolog.Nop(),
	)
	return f
}

func pendingPayment(clinicID uuid.UUID, amount int64) *model.Payment {
	return &model.Payment{
		Base:          model.Base{ID: uuid.New()},
		ClinicID:      clinicID,
		ClientID:      uuid.New(),
		Amount:        amount,
		Status:        model.PaymentStatusPending,
		PaymentMethod: "card",
	}
}

func TestConfirm(t *testing.T) {
	clinicID := uuid.New()

	t.Run("credits account and emits event", func(t *testing.T) {
		f := newFixture(pendingPayment(clinicID, 15000))
		account := &model.Account{Base: model.Base{ID: uuid.New()}, ClinicID: clinicID, IsDefault: true}
		f.accounts.target = account

		confirmed, err := f.svc.Confirm(context.Background(), clinicID, f.payments.payment.ID)
		require.NoError(t, err)

		assert.Equal(t, model.PaymentStatusPaid, confirmed.Status)
		require.NotNil(t, confirmed.PaymentDate)
		assert.Equal(t, 1, f.txm.runs)

		require.Len(t, f.transactions.created, 1)
		assert.Equal(t, int64(15000), f.transactions.created[0].Amount)
		assert.Equal(t, model.TransactionTypeIncome, f.transactions.created[0].Type)
		assert.Equal(t, int64(15000), f.accounts.adjusted[account.ID])

		require.Len(t, f.outbox.events, 1)
		assert.Equal(t, model.EventPaymentConfirmed, f.outbox.events[0].EventType)
	})

	t.Run("confirming a paid payment is a no-op", func(t *testing.T) {
		payment := pendingPayment(clinicID, 15000)
		payment.Status = model.PaymentStatusPaid
		f := newFixture(payment)

		confirmed, err := f.svc.Confirm(context.Background(), clinicID, payment.ID)
		require.NoError(t, err)

		assert.Equal(t, model.PaymentStatusPaid, confirmed.Status)
		assert.Zero(t, f.txm.runs)
		assert.Empty(t, f.transactions.created)
		assert.Empty(t, f.outbox.events)
	})

	t.Run("rejects refunded payment", func(t *testing.T) {
		payment := pendingPayment(clinicID, 15000)
		payment.Status = model.PaymentStatusRefunded
		f := newFixture(payment)

		_, err := f.svc.Confirm(context.Background(), clinicID, payment.ID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.StatusCode())
	})

	t.Run("creates commission from professional rate", func(t *testing.T) {
		aptID := uuid.New()
		professionalID := uuid.New()
		payment := pendingPayment(clinicID, 10050)
		payment.AppointmentID = &aptID
		f := newFixture(payment)
		f.appointments.appointment = &model.Appointment{
			Base:           model.Base{ID: aptID},
			ClinicID:       clinicID,
			ProfessionalID: professionalID,
		}
		f.appointments.getErr = nil
		rate := 0.2
		f.memberships.membership = &model.ClinicMembership{
			Base:           model.Base{ID: uuid.New()},
			ClinicID:       clinicID,
			UserID:         professionalID,
			Role:           model.ClinicRoleProfessional,
			CommissionRate: &rate,
		}
		f.memberships.getErr = nil

		_, err := f.svc.Confirm(context.Background(), clinicID, payment.ID)
		require.NoError(t, err)

		require.Len(t, f.commissions.created, 1)
		c := f.commissions.created[0]
		assert.Equal(t, professionalID, c.ProfessionalID)
		assert.Equal(t, payment.ID, c.PaymentID)
		assert.Equal(t, 0.2, c.Rate)
		// round(10050 * 0.2) = 2010
		assert.Equal(t, int64(2010), c.Amount)
	})

	t.Run("skips commission when one already exists", func(t *testing.T) {
		aptID := uuid.New()
		payment := pendingPayment(clinicID, 10000)
		payment.AppointmentID = &aptID
		f := newFixture(payment)
		f.appointments.appointment = &model.Appointment{
			Base:           model.Base{ID: aptID},
			ClinicID:       clinicID,
			ProfessionalID: uuid.New(),
		}
		f.appointments.getErr = nil
		rate := 0.1
		f.memberships.membership = &model.ClinicMembership{CommissionRate: &rate}
		f.memberships.getErr = nil
		f.commissions.exists = true

		_, err := f.svc.Confirm(context.Background(), clinicID, payment.ID)
		require.NoError(t, err)
		assert.Empty(t, f.commissions.created)
	})

	t.Run("no commission without a rate", func(t *testing.T) {
		aptID := uuid.New()
		payment := pendingPayment(clinicID, 10000)
		payment.AppointmentID = &aptID
		f := newFixture(payment)
		f.appointments.appointment = &model.Appointment{
			Base:           model.Base{ID: aptID},
			ClinicID:       clinicID,
			ProfessionalID: uuid.New(),
		}
		f.appointments.getErr = nil
		f.memberships.membership = &model.ClinicMembership{}
		f.memberships.getErr = nil

		_, err := f.svc.Confirm(context.Background(), clinicID, payment.ID)
		require.NoError(t, err)
		assert.Empty(t, f.commissions.created)
	})

	t.Run("payment of another clinic is not confirmable through this one", func(t *testing.T) {
		otherClinic := uuid.New()
		f := newFixture(pendingPayment(otherClinic, 15000))
		f.accounts.target = &model.Account{Base: model.Base{ID: uuid.New()}, ClinicID: otherClinic}

		_, err := f.svc.Confirm(context.Background(), clinicID, f.payments.payment.ID)
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())

		assert.Equal(t, model.PaymentStatusPending, f.payments.payment.Status)
		assert.Zero(t, f.txm.runs)
		assert.Empty(t, f.transactions.created)
		assert.Empty(t, f.accounts.adjusted)
	})
}

func TestRefund(t *testing.T) {
	clinicID := uuid.New()

	paidPayment := func(amount int64) *model.Payment {
		p := pendingPayment(clinicID, amount)
		p.Status = model.PaymentStatusPaid
		return p
	}

	t.Run("full refund moves payment to refunded", func(t *testing.T) {
		f := newFixture(paidPayment(20000))
		account := &model.Account{Base: model.Base{ID: uuid.New()}, ClinicID: clinicID}
		f.accounts.target = account

		refunded, err := f.svc.Refund(context.Background(), clinicID, f.payments.payment.ID, &model.RefundPaymentRequest{})
		require.NoError(t, err)

		assert.Equal(t, model.PaymentStatusRefunded, refunded.Status)
		require.NotNil(t, refunded.RefundAmount)
		assert.Equal(t, int64(20000), *refunded.RefundAmount)

		require.Len(t, f.transactions.created, 1)
		assert.Equal(t, int64(-20000), f.transactions.created[0].Amount)
		assert.Equal(t, int64(-20000), f.accounts.adjusted[account.ID])

		require.Len(t, f.outbox.events, 1)
		assert.Equal(t, model.EventPaymentRefunded, f.outbox.events[0].EventType)
	})

	t.Run("partial refund moves payment to partial", func(t *testing.T) {
		f := newFixture(paidPayment(20000))
		amount := int64(5000)
		reason := "client complaint"

		refunded, err := f.svc.Refund(context.Background(), clinicID, f.payments.payment.ID, &model.RefundPaymentRequest{
			Amount: &amount,
			Reason: &reason,
		})
		require.NoError(t, err)

		assert.Equal(t, model.PaymentStatusPartial, refunded.Status)
		assert.Equal(t, int64(5000), *refunded.RefundAmount)
		require.NotNil(t, refunded.RefundReason)
		assert.Equal(t, "client complaint", *refunded.RefundReason)
	})

	t.Run("rejects refund above original amount", func(t *testing.T) {
		f := newFixture(paidPayment(20000))
		amount := int64(20001)

		_, err := f.svc.Refund(context.Background(), clinicID, f.payments.payment.ID, &model.RefundPaymentRequest{Amount: &amount})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.StatusCode())
		assert.Zero(t, f.txm.runs)
	})

	t.Run("rejects refund of pending payment", func(t *testing.T) {
		f := newFixture(pendingPayment(clinicID, 20000))

		_, err := f.svc.Refund(context.Background(), clinicID, f.payments.payment.ID, &model.RefundPaymentRequest{})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.StatusCode())
	})

	t.Run("payment of another clinic is not refundable through this one", func(t *testing.T) {
		p := paidPayment(20000)
		p.ClinicID = uuid.New()
		f := newFixture(p)

		_, err := f.svc.Refund(context.Background(), clinicID, p.ID, &model.RefundPaymentRequest{})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())
		assert.Equal(t, model.PaymentStatusPaid, p.Status)
		assert.Zero(t, f.txm.runs)
	})
}

func TestListCommissions(t *testing.T) {
	clinicID := uuid.New()
	professionalID := uuid.New()

	mine := &model.Commission{Base: model.Base{ID: uuid.New()}, ClinicID: clinicID, ProfessionalID: professionalID, Amount: 2000}
	foreign := &model.Commission{Base: model.Base{ID: uuid.New()}, ClinicID: uuid.New(), ProfessionalID: professionalID, Amount: 9000}

	t.Run("lists the clinic's commissions", func(t *testing.T) {
		f := newFixture(nil)
		f.commissions.byClinic = []*model.Commission{mine}

		got, err := f.svc.ListCommissions(context.Background(), clinicID, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, mine.ID, got[0].ID)
	})

	t.Run("professional filter drops rows from other clinics", func(t *testing.T) {
		f := newFixture(nil)
		f.commissions.byProfessional = []*model.Commission{mine, foreign}

		got, err := f.svc.ListCommissions(context.Background(), clinicID, &professionalID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, mine.ID, got[0].ID)
	})
}

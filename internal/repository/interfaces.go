package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
)

// ErrNotFound is returned by repositories when a row does not resolve.
var ErrNotFound = errors.New("not found")

// TxManager runs a function inside a single database transaction, rolling
// back if the function returns an error.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type ClinicRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, clinic *model.Clinic) error
	Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	Update(ctx context.Context, clinic *model.Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Clinic, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, m *model.ClinicMembership) error
	Get(ctx context.Context, id uuid.UUID) (*model.ClinicMembership, error)
	GetByClinicAndUser(ctx context.Context, clinicID, userID uuid.UUID) (*model.ClinicMembership, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.ClinicMembership, error)
	Update(ctx context.Context, m *model.ClinicMembership) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByClinicAndRole(ctx context.Context, clinicID uuid.UUID, role model.ClinicRole) (int, error)
}

type PermissionRepository interface {
	Grant(ctx context.Context, p *model.Permission) error
	GrantTx(ctx context.Context, tx *sqlx.Tx, p *model.Permission) error
	Revoke(ctx context.Context, membershipID uuid.UUID, module, action string) error
	Has(ctx context.Context, membershipID uuid.UUID, module, action string) (bool, error)
	ListByMembership(ctx context.Context, membershipID uuid.UUID) ([]*model.Permission, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Invitation, error)
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Invitation, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.InvitationStatus) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Get(ctx context.Context, id uuid.UUID) (*model.Client, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, search string) ([]*model.Client, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, apt *model.Appointment) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	Get(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	Update(ctx context.Context, expense *model.Expense) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, expense *model.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, status model.ExpenseStatus) ([]*model.Expense, error)
	ListDueInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.Expense, error)
	SumPendingInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) (int64, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Account, error)
	// PaymentTarget resolves the clinic's default account, falling back to
	// the oldest account. Returns nil with no error when the clinic has no
	// accounts at all.
	PaymentTarget(ctx context.Context, clinicID uuid.UUID) (*model.Account, error)
	SetDefault(ctx context.Context, tx *sqlx.Tx, clinicID, accountID uuid.UUID) error
	AdjustBalanceTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, delta int64) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.FinancialTransaction) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, txn *model.FinancialTransaction) error
	ListInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.FinancialTransaction, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, payment *model.Payment) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error)
}

type CommissionRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, c *model.Commission) error
	ExistsForPayment(ctx context.Context, paymentID uuid.UUID) (bool, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Commission, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*model.Commission, error)
}

type BudgetRepository interface {
	Create(ctx context.Context, budget *model.Budget) error
	Get(ctx context.Context, id uuid.UUID) (*model.Budget, error)
	Update(ctx context.Context, budget *model.Budget) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, year int) ([]*model.Budget, error)
	ExistsForMonth(ctx context.Context, clinicID uuid.UUID, year, month int) (bool, error)
}

type FinancialGoalRepository interface {
	Create(ctx context.Context, goal *model.FinancialGoal) error
	Get(ctx context.Context, id uuid.UUID) (*model.FinancialGoal, error)
	Update(ctx context.Context, goal *model.FinancialGoal) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.FinancialGoal, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

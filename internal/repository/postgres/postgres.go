package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

type clinicRepository struct {
	db *sqlx.DB
}

type membershipRepository struct {
	db *sqlx.DB
}

type permissionRepository struct {
	db *sqlx.DB
}

type invitationRepository struct {
	db *sqlx.DB
}

type clientRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type expenseRepository struct {
	db *sqlx.DB
}

type accountRepository struct {
	db *sqlx.DB
}

type transactionRepository struct {
	db *sqlx.DB
}

type paymentRepository struct {
	db *sqlx.DB
}

type commissionRepository struct {
	db *sqlx.DB
}

type budgetRepository struct {
	db *sqlx.DB
}

type financialGoalRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{db: db}
}

func NewMembershipRepository(db *sqlx.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func NewPermissionRepository(db *sqlx.DB) repository.PermissionRepository {
	return &permissionRepository{db: db}
}

func NewInvitationRepository(db *sqlx.DB) repository.InvitationRepository {
	return &invitationRepository{db: db}
}

func NewClientRepository(db *sqlx.DB) repository.ClientRepository {
	return &clientRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewExpenseRepository(db *sqlx.DB) repository.ExpenseRepository {
	return &expenseRepository{db: db}
}

func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func NewCommissionRepository(db *sqlx.DB) repository.CommissionRepository {
	return &commissionRepository{db: db}
}

func NewBudgetRepository(db *sqlx.DB) repository.BudgetRepository {
	return &budgetRepository{db: db}
}

func NewFinancialGoalRepository(db *sqlx.DB) repository.FinancialGoalRepository {
	return &financialGoalRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// FinancialTransaction is an append-only ledger row. Amount is signed:
// positive for income, negative for expense.
type FinancialTransaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ClinicID    uuid.UUID       `db:"clinic_id" json:"clinic_id"`
	AccountID   *uuid.UUID      `db:"account_id" json:"account_id,omitempty"`
	Amount      int64           `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description,omitempty"`
	Date        time.Time       `db:"date" json:"date"`
	ExpenseID   *uuid.UUID      `db:"expense_id" json:"expense_id,omitempty"`
	PaymentID   *uuid.UUID      `db:"payment_id" json:"payment_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type CreateTransactionRequest struct {
	AccountID   *uuid.UUID      `json:"account_id"`
	Amount      int64           `json:"amount" binding:"required"`
	Type        TransactionType `json:"type" binding:"required,oneof=income expense transfer"`
	Category    string          `json:"category" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Date        time.Time       `json:"date" binding:"required"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type ExpenseStatus string

const (
	ExpenseStatusPending   ExpenseStatus = "PENDING"
	ExpenseStatusPaid      ExpenseStatus = "PAID"
	ExpenseStatusScheduled ExpenseStatus = "SCHEDULED"
	ExpenseStatusRecurring ExpenseStatus = "RECURRING"
	ExpenseStatusCancelled ExpenseStatus = "CANCELLED"
)

// Expense amounts are integer minor-currency units (cents).
type Expense struct {
	Base
	ClinicID      uuid.UUID     `db:"clinic_id" json:"clinic_id"`
	Description   string        `db:"description" json:"description"`
	Amount        int64         `db:"amount" json:"amount"`
	Category      string        `db:"category" json:"category"`
	Status        ExpenseStatus `db:"status" json:"status"`
	DueDate       time.Time     `db:"due_date" json:"due_date"`
	PaymentDate   *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	PaymentMethod *string       `db:"payment_method" json:"payment_method,omitempty"`
}

type CreateExpenseRequest struct {
	Description string    `json:"description" binding:"required,max=500"`
	Amount      int64     `json:"amount" binding:"required,gt=0"`
	Category    string    `json:"category" binding:"required,max=100"`
	DueDate     time.Time `json:"due_date" binding:"required"`
}

type UpdateExpenseRequest struct {
	Description *string    `json:"description" binding:"omitempty,max=500"`
	Amount      *int64     `json:"amount" binding:"omitempty,gt=0"`
	Category    *string    `json:"category" binding:"omitempty,max=100"`
	DueDate     *time.Time `json:"due_date"`
}

type PayExpenseRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,max=50"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
)

type Payment struct {
	Base
	ClinicID      uuid.UUID     `db:"clinic_id" json:"clinic_id"`
	ClientID      uuid.UUID     `db:"client_id" json:"client_id"`
	AppointmentID *uuid.UUID    `db:"appointment_id" json:"appointment_id,omitempty"`
	Amount        int64         `db:"amount" json:"amount"`
	Status        PaymentStatus `db:"status" json:"status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	PaymentDate   *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	RefundAmount  *int64        `db:"refund_amount" json:"refund_amount,omitempty"`
	RefundReason  *string       `db:"refund_reason" json:"refund_reason,omitempty"`
}

type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)

// Commission is owed to a professional, created exactly once when a payment
// linked to their appointment is confirmed. Amount = round(payment × rate).
type Commission struct {
	Base
	ClinicID       uuid.UUID        `db:"clinic_id" json:"clinic_id"`
	ProfessionalID uuid.UUID        `db:"professional_id" json:"professional_id"`
	PaymentID      uuid.UUID        `db:"payment_id" json:"payment_id"`
	Amount         int64            `db:"amount" json:"amount"`
	Rate           float64          `db:"rate" json:"rate"`
	Status         CommissionStatus `db:"status" json:"status"`
}

type CreatePaymentRequest struct {
	ClientID      uuid.UUID  `json:"client_id" binding:"required"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Amount        int64      `json:"amount" binding:"required,gt=0"`
	PaymentMethod string     `json:"payment_method" binding:"required,max=50"`
}

type RefundPaymentRequest struct {
	Amount *int64  `json:"amount" binding:"omitempty,gt=0"`
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

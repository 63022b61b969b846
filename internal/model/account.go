package model

import (
	"github.com/google/uuid"
)

// Account balances are integer minor-currency units. At most one account
// per clinic carries IsDefault = true; the repository enforces this with a
// single clear-then-set statement pair inside one transaction.
type Account struct {
	Base
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name      string    `db:"name" json:"name"`
	Balance   int64     `db:"balance" json:"balance"`
	IsDefault bool      `db:"is_default" json:"is_default"`
}

type CreateAccountRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Balance   int64  `json:"balance"`
	IsDefault bool   `json:"is_default"`
}

type UpdateAccountRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=200"`
	IsDefault *bool   `json:"is_default"`
}

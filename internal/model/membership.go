package model

import (
	"github.com/google/uuid"
)

type ClinicRole string

const (
	ClinicRoleOwner        ClinicRole = "OWNER"
	ClinicRoleManager      ClinicRole = "MANAGER"
	ClinicRoleProfessional ClinicRole = "PROFESSIONAL"
	ClinicRoleReceptionist ClinicRole = "RECEPTIONIST"
	ClinicRoleFinancial    ClinicRole = "FINANCIAL"
	ClinicRoleMarketing    ClinicRole = "MARKETING"
	ClinicRoleStaff        ClinicRole = "STAFF"
)

func (r ClinicRole) Valid() bool {
	switch r {
	case ClinicRoleOwner, ClinicRoleManager, ClinicRoleProfessional,
		ClinicRoleReceptionist, ClinicRoleFinancial, ClinicRoleMarketing, ClinicRoleStaff:
		return true
	}
	return false
}

// ClinicMembership joins a user to a clinic with a clinic-scoped role.
// A user holds at most one membership per clinic. CommissionRate is only
// meaningful for PROFESSIONAL members; nil means no commission is owed.
type ClinicMembership struct {
	Base
	ClinicID       uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	Role           ClinicRole `db:"role" json:"role"`
	CommissionRate *float64   `db:"commission_rate" json:"commission_rate,omitempty"`
}

type AddMemberRequest struct {
	UserID         uuid.UUID  `json:"user_id" binding:"required"`
	Role           ClinicRole `json:"role" binding:"required"`
	CommissionRate *float64   `json:"commission_rate" binding:"omitempty,gte=0,lte=1"`
}

type UpdateMemberRequest struct {
	Role           *ClinicRole `json:"role"`
	CommissionRate *float64    `json:"commission_rate" binding:"omitempty,gte=0,lte=1"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Permission grants one (module, action) pair to a clinic membership.
// Absence of a row means denied unless the membership role or the user's
// global role short-circuits the check.
type Permission struct {
	ID           uuid.UUID `db:"id" json:"id"`
	MembershipID uuid.UUID `db:"membership_id" json:"membership_id"`
	Module       string    `db:"module" json:"module"`
	Action       string    `db:"action" json:"action"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type GrantPermissionRequest struct {
	Module string `json:"module" binding:"required,max=50" validate:"required,max=50"`
	Action string `json:"action" binding:"required,max=50" validate:"required,max=50"`
}

// PermissionSet is the embeddable form carried by invitations and copied
// onto the membership when the invitation is accepted.
type PermissionSet []GrantPermissionRequest

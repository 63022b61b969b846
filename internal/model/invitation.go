package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusRevoked  InvitationStatus = "REVOKED"
)

type Invitation struct {
	Base
	ClinicID       uuid.UUID        `db:"clinic_id" json:"clinic_id"`
	Email          string           `db:"email" json:"email"`
	Role           ClinicRole       `db:"role" json:"role"`
	Token          string           `db:"token" json:"-"`
	Permissions    json.RawMessage  `db:"permissions" json:"permissions"`
	Status         InvitationStatus `db:"status" json:"status"`
	ExpiresAt      time.Time        `db:"expires_at" json:"expires_at"`
	CommissionRate *float64         `db:"commission_rate" json:"commission_rate,omitempty"`
}

// PermissionSet decodes the embedded permission payload. An empty or nil
// payload yields an empty set.
func (i *Invitation) PermissionSet() (PermissionSet, error) {
	if len(i.Permissions) == 0 {
		return PermissionSet{}, nil
	}
	var set PermissionSet
	if err := json.Unmarshal(i.Permissions, &set); err != nil {
		return nil, err
	}
	return set, nil
}

type CreateInvitationRequest struct {
	Email          string        `json:"email" binding:"required,email"`
	Role           ClinicRole    `json:"role" binding:"required"`
	Permissions    PermissionSet `json:"permissions"`
	CommissionRate *float64      `json:"commission_rate" binding:"omitempty,gte=0,lte=1"`
}

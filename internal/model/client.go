package model

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	Base
	ClinicID  uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email,omitempty"`
	Phone     string     `db:"phone" json:"phone,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Notes     string     `db:"notes" json:"notes,omitempty"`
}

type CreateClientRequest struct {
	Name      string     `json:"name" binding:"required,max=200"`
	Email     string     `json:"email" binding:"omitempty,email"`
	Phone     string     `json:"phone" binding:"max=30"`
	BirthDate *time.Time `json:"birth_date"`
	Notes     string     `json:"notes" binding:"max=2000"`
}

type UpdateClientRequest struct {
	Name      *string    `json:"name" binding:"omitempty,max=200"`
	Email     *string    `json:"email" binding:"omitempty,email"`
	Phone     *string    `json:"phone" binding:"omitempty,max=30"`
	BirthDate *time.Time `json:"birth_date"`
	Notes     *string    `json:"notes" binding:"omitempty,max=2000"`
}

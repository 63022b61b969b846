package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a plain timestamped row; there is no conflict-detection
// engine on top of it. ProfessionalID references the clinic membership of
// the professional delivering the service.
type Appointment struct {
	Base
	ClinicID       uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	ClientID       uuid.UUID         `db:"client_id" json:"client_id"`
	ProfessionalID uuid.UUID         `db:"professional_id" json:"professional_id"`
	StartTime      time.Time         `db:"start_time" json:"start_time"`
	EndTime        time.Time         `db:"end_time" json:"end_time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	Notes          string            `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequest struct {
	ClientID       uuid.UUID `json:"client_id" binding:"required"`
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Notes          string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	StartTime *time.Time         `json:"start_time"`
	EndTime   *time.Time         `json:"end_time"`
	Status    *AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	Notes     *string            `json:"notes" binding:"omitempty,max=1000"`
}

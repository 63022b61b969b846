package model

import (
	"time"

	"github.com/google/uuid"
)

// Budget is unique per (clinic_id, year, month).
type Budget struct {
	Base
	ClinicID uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Year     int       `db:"year" json:"year"`
	Month    int       `db:"month" json:"month"`
	Amount   int64     `db:"amount" json:"amount"`
	Category string    `db:"category" json:"category,omitempty"`
}

type CreateBudgetRequest struct {
	Year     int    `json:"year" binding:"required,gte=2000,lte=2100"`
	Month    int    `json:"month" binding:"required,gte=1,lte=12"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Category string `json:"category" binding:"max=100"`
}

type FinancialGoal struct {
	Base
	ClinicID    uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name        string    `db:"name" json:"name"`
	TargetValue int64     `db:"target_value" json:"target_value"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
}

type CreateFinancialGoalRequest struct {
	Name        string    `json:"name" binding:"required,max=200"`
	TargetValue int64     `json:"target_value" binding:"required,gt=0"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required,gtfield=StartDate"`
}

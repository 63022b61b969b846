package model

type Clinic struct {
	Base
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Status   string `db:"status" json:"status"`
}

type CreateClinicRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Location string `json:"location" binding:"max=500"`
}

type UpdateClinicRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	Location *string `json:"location" binding:"omitempty,max=500"`
	Status   *string `json:"status" binding:"omitempty,oneof=active inactive"`
}

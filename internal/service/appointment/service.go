package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
)

// Service manages appointment rows. There is deliberately no
// conflict-detection engine; overlapping bookings are allowed.
type Service struct {
	appointments repository.AppointmentRepository
	memberships  repository.MembershipRepository
	logger       zerolog.Logger
}

func NewService(appointments repository.AppointmentRepository, memberships repository.MembershipRepository, logger zerolog.Logger) *Service {
	return &Service{appointments: appointments, memberships: memberships, logger: logger}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	membership, err := s.memberships.Get(ctx, req.ProfessionalID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.BadRequest("professional is not a member of this clinic", err)
		}
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}
	if membership.ClinicID != clinicID {
		return nil, errors.BadRequest("professional is not a member of this clinic", nil)
	}

	apt := &model.Appointment{
		ClinicID:       clinicID,
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         model.AppointmentStatusScheduled,
		Notes:          req.Notes,
	}
	if err := s.appointments.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return apt, nil
}

// Get loads an appointment and verifies it belongs to clinicID;
// appointments of other clinics are reported as not found.
func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if apt.ClinicID != clinicID {
		return nil, errors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	appointments, err := s.appointments.ListByClinic(ctx, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		apt.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		apt.EndTime = *req.EndTime
	}
	if !apt.EndTime.After(apt.StartTime) {
		return nil, errors.BadRequest("end time must be after start time", nil)
	}
	if req.Status != nil {
		apt.Status = *req.Status
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

package clinic

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
)

type Service struct {
	clinics     repository.ClinicRepository
	memberships repository.MembershipRepository
	txm         repository.TxManager
	logger      zerolog.Logger
}

func NewService(clinics repository.ClinicRepository, memberships repository.MembershipRepository, txm repository.TxManager, logger zerolog.Logger) *Service {
	return &Service{
		clinics:     clinics,
		memberships: memberships,
		txm:         txm,
		logger:      logger,
	}
}

// Create inserts the clinic and makes the creator its OWNER in the same
// transaction, so a clinic can never exist without an owner of record.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *model.CreateClinicRequest) (*model.Clinic, error) {
	clinic := &model.Clinic{
		Name:     req.Name,
		Location: req.Location,
		Status:   "active",
	}

	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.clinics.Create(ctx, tx, clinic); err != nil {
			return fmt.Errorf("failed to create clinic: %w", err)
		}
		owner := &model.ClinicMembership{
			ClinicID: clinic.ID,
			UserID:   creatorID,
			Role:     model.ClinicRoleOwner,
		}
		if err := s.memberships.Create(ctx, tx, owner); err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("clinic_id", clinic.ID.String()).
		Str("owner_id", creatorID.String()).
		Msg("clinic created")

	return clinic, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.clinics.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("clinic", err)
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	clinic, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		clinic.Name = *req.Name
	}
	if req.Location != nil {
		clinic.Location = *req.Location
	}
	if req.Status != nil {
		clinic.Status = *req.Status
	}

	if err := s.clinics.Update(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to update clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clinics.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("clinic", err)
		}
		return fmt.Errorf("failed to delete clinic: %w", err)
	}
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Clinic, error) {
	clinics, err := s.clinics.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

package membership

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

// PermissionInvalidator is notified after grants and revocations so cached
// authorization decisions do not outlive the change.
type PermissionInvalidator interface {
	InvalidatePermissions(membershipID uuid.UUID)
}

type Service struct {
	memberships repository.MembershipRepository
	permissions repository.PermissionRepository
	txm         repository.TxManager
	invalidator PermissionInvalidator
	logger      zerolog.Logger
}

func NewService(
	memberships repository.MembershipRepository,
	permissions repository.PermissionRepository,
	txm repository.TxManager,
	invalidator PermissionInvalidator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		memberships: memberships,
		permissions: permissions,
		txm:         txm,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (s *Service) Add(ctx context.Context, clinicID uuid.UUID, req *model.AddMemberRequest) (*model.ClinicMembership, error) {
	if !req.Role.Valid() {
		return nil, errors.BadRequest("invalid role", nil)
	}
	if _, err := s.memberships.GetByClinicAndUser(ctx, clinicID, req.UserID); err == nil {
		return nil, errors.Conflict("user is already a member of this clinic")
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	m := &model.ClinicMembership{
		ClinicID:       clinicID,
		UserID:         req.UserID,
		Role:           req.Role,
		CommissionRate: req.CommissionRate,
	}
	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		return s.memberships.Create(ctx, tx, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

// Get loads a membership and verifies it belongs to clinicID; memberships
// of other clinics are reported as not found.
func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.ClinicMembership, error) {
	m, err := s.memberships.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("membership", err)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if m.ClinicID != clinicID {
		return nil, errors.NotFound("membership", nil)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID) ([]*model.ClinicMembership, error) {
	members, err := s.memberships.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateMemberRequest) (*model.ClinicMembership, error) {
	m, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, errors.BadRequest("invalid role", nil)
		}
		if m.Role == model.ClinicRoleOwner && *req.Role != model.ClinicRoleOwner {
			if err := s.ensureNotSoleOwner(ctx, m); err != nil {
				return nil, err
			}
		}
		m.Role = *req.Role
	}
	if req.CommissionRate != nil {
		m.CommissionRate = req.CommissionRate
	}

	if err := s.memberships.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	return m, nil
}

// Remove deletes a membership. The sole OWNER of a clinic cannot be
// removed; ownership has to be transferred first.
func (s *Service) Remove(ctx context.Context, clinicID, id uuid.UUID) error {
	m, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return err
	}
	if m.Role == model.ClinicRoleOwner {
		if err := s.ensureNotSoleOwner(ctx, m); err != nil {
			return err
		}
	}

	if err := s.memberships.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.logger.Info().
		Str("membership_id", id.String()).
		Str("clinic_id", m.ClinicID.String()).
		Msg("member removed")
	return nil
}

func (s *Service) ensureNotSoleOwner(ctx context.Context, m *model.ClinicMembership) error {
	owners, err := s.memberships.CountByClinicAndRole(ctx, m.ClinicID, model.ClinicRoleOwner)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if owners <= 1 {
		return errors.BadRequest("cannot remove the clinic's only owner", nil)
	}
	return nil
}

// GrantPermission adds a (module, action) row for the membership. Granting
// an already granted pair is a no-op.
func (s *Service) GrantPermission(ctx context.Context, clinicID, membershipID uuid.UUID, req *model.GrantPermissionRequest) (*model.Permission, error) {
	if _, err := s.Get(ctx, clinicID, membershipID); err != nil {
		return nil, err
	}

	p := &model.Permission{
		MembershipID: membershipID,
		Module:       req.Module,
		Action:       req.Action,
	}
	if err := s.permissions.Grant(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to grant permission: %w", err)
	}

	s.invalidator.InvalidatePermissions(membershipID)
	return p, nil
}

func (s *Service) RevokePermission(ctx context.Context, clinicID, membershipID uuid.UUID, module, action string) error {
	if _, err := s.Get(ctx, clinicID, membershipID); err != nil {
		return err
	}
	if err := s.permissions.Revoke(ctx, membershipID, module, action); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("permission", err)
		}
		return fmt.Errorf("failed to revoke permission: %w", err)
	}

	s.invalidator.InvalidatePermissions(membershipID)
	return nil
}

func (s *Service) ListPermissions(ctx context.Context, clinicID, membershipID uuid.UUID) ([]*model.Permission, error) {
	if _, err := s.Get(ctx, clinicID, membershipID); err != nil {
		return nil, err
	}
	perms, err := s.permissions.ListByMembership(ctx, membershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}
